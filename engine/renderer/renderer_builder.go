package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend selects the device implementation. Defaults to BackendTypeHost.
//
// Parameters:
//   - backendType: the backend to create
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backendType RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.backendType = backendType
	}
}

// WithWorkers sets the number of workers the host backend fans workgroups out to.
// Values <= 0 fall back to runtime.NumCPU(). Ignored by the WebGPU backend.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = n
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceFallbackAdapter(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
