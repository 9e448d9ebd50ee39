package pipeline

import "github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithComputeShader sets the compute shader for this pipeline.
//
// Parameters:
//   - s: the compute shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the compute shader for this pipeline
func WithComputeShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeShader = s
	}
}

// WithHostKernel sets the CPU kernel executed by the host renderer backend.
//
// Parameters:
//   - k: the host kernel
//
// Returns:
//   - PipelineBuilderOption: a function that sets the host kernel for this pipeline
func WithHostKernel(k HostKernel) PipelineBuilderOption {
	return func(p *pipeline) {
		p.hostKernel = k
	}
}
