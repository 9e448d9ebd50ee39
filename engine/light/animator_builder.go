package light

// AnimatorBuilderOption is a functional option used to configure an Animator during construction.
type AnimatorBuilderOption func(*animatorImpl)

// WithMotionParams replaces the default motion.
//
// Parameters:
//   - p: the motion parameters
//
// Returns:
//   - AnimatorBuilderOption: a function that sets the motion parameters
func WithMotionParams(p MotionParams) AnimatorBuilderOption {
	return func(a *animatorImpl) {
		a.params = p
	}
}

// WithWorkgroupSize sets the number of lights per workgroup. Defaults to MoveLightsWorkgroupSize.
//
// Parameters:
//   - n: the workgroup size
//
// Returns:
//   - AnimatorBuilderOption: a function that sets the workgroup size
func WithWorkgroupSize(n int) AnimatorBuilderOption {
	return func(a *animatorImpl) {
		a.workgroupSize = n
	}
}
