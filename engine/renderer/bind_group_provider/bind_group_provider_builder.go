package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets a buffer owned by the provider for a specific binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithSharedBuffer sets a buffer owned by another provider for a specific binding index.
// The provider binds it but never releases it.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the shared buffer
//
// Returns:
//   - BindGroupProviderOption: a function that shares the buffer at the specified binding
func WithSharedBuffer(binding int, buf Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
		p.shared[binding] = true
	}
}
