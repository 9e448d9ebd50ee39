package light

// LightStoreBuilderOption is a functional option used to configure a LightStore during construction.
type LightStoreBuilderOption func(*lightStoreImpl)

// WithCapacity sets the number of light slots. Defaults to MaxNumLights.
//
// Parameters:
//   - n: the capacity
//
// Returns:
//   - LightStoreBuilderOption: a function that sets the capacity
func WithCapacity(n int) LightStoreBuilderOption {
	return func(s *lightStoreImpl) {
		s.capacity = n
	}
}

// WithActiveCount sets the initial active light count. Defaults to DefaultNumLights.
//
// Parameters:
//   - n: the active count
//
// Returns:
//   - LightStoreBuilderOption: a function that sets the active count
func WithActiveCount(n int) LightStoreBuilderOption {
	return func(s *lightStoreImpl) {
		s.activeCount = n
	}
}

// WithIntensity sets the scalar applied to every light color. Defaults to LightIntensity.
//
// Parameters:
//   - intensity: the intensity scalar
//
// Returns:
//   - LightStoreBuilderOption: a function that sets the intensity
func WithIntensity(intensity float32) LightStoreBuilderOption {
	return func(s *lightStoreImpl) {
		s.intensity = intensity
	}
}

// WithSeed makes color assignment deterministic.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - LightStoreBuilderOption: a function that sets the seed
func WithSeed(seed uint64) LightStoreBuilderOption {
	return func(s *lightStoreImpl) {
		s.seed = seed
		s.seeded = true
	}
}

// WithLabel sets the debug label prefix of the store's provider and buffer.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - LightStoreBuilderOption: a function that sets the label
func WithLabel(label string) LightStoreBuilderOption {
	return func(s *lightStoreImpl) {
		s.label = label
	}
}
