package pipeline

import (
	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
)

// HostKernel is the CPU rendition of a compute entry point, invoked once per global
// invocation ID by the host renderer backend. bindings is indexed by binding number and
// aliases the live buffer memory; entries for unbound indices are nil. A kernel must
// bounds-check its invocation ID the same way the WGSL entry point does.
type HostKernel func(globalID common.Dim3, bindings [][]byte)

// pipeline is the implementation of the Pipeline interface.
// It holds the compute shader, the host kernel and the backend pipeline object.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// computeShader is required to be set before the pipeline is registered with a renderer.
	computeShader shader.Shader

	// hostKernel is executed by the host backend in place of the WGSL entry point.
	hostKernel HostKernel

	// computePipeline is the backend pipeline object (*wgpu.ComputePipeline on the WebGPU backend)
	computePipeline any
}

// Pipeline defines the interface for a compute pipeline: a pre-processed WGSL compute
// shader, its binding layout and workgroup size, plus an equivalent host kernel so the same
// stage can run without a GPU.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the compute shader, or nil if none was set.
	//
	// Returns:
	//   - shader.Shader: the compute shader
	Shader() shader.Shader

	// Bindings returns the @group(0) binding layout declared by the shader.
	//
	// Returns:
	//   - []shader.BindingLayout: the binding layout sorted by binding index
	Bindings() []shader.BindingLayout

	// WorkgroupSize returns the shader's workgroup size.
	//
	// Returns:
	//   - common.Dim3: the workgroup size
	WorkgroupSize() common.Dim3

	// HostKernel returns the CPU kernel for this pipeline, or nil if the stage can only run on a GPU.
	//
	// Returns:
	//   - HostKernel: the host kernel
	HostKernel() HostKernel

	// Pipeline returns the underlying backend pipeline object.
	// Note: The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the underlying pipeline object, nil before registration
	Pipeline() any

	// SetComputePipeline sets the backend pipeline object. Called by the renderer during registration.
	//
	// Parameters:
	//   - p: the backend pipeline object
	SetComputePipeline(p any)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new compute Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.computeShader
}

func (p *pipeline) Bindings() []shader.BindingLayout {
	if p.computeShader == nil {
		return nil
	}
	return p.computeShader.Bindings()
}

func (p *pipeline) WorkgroupSize() common.Dim3 {
	if p.computeShader == nil {
		return common.Dim3{1, 1, 1}
	}
	return common.Dim3(p.computeShader.WorkgroupSize())
}

func (p *pipeline) HostKernel() HostKernel {
	return p.hostKernel
}

func (p *pipeline) Pipeline() any {
	return p.computePipeline
}

func (p *pipeline) SetComputePipeline(cp any) {
	p.computePipeline = cp
}
