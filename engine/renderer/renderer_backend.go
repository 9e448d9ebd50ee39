package renderer

import (
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
)

// RendererBackendType identifies the device implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeHost runs compute stages on the CPU. Buffers live in host memory and every
	// workgroup of a dispatch is executed by the shared worker pool.
	BackendTypeHost RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU
)

// String returns the flag spelling of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeHost:
		return "host"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a flag value ("host" or "wgpu") to a RendererBackendType.
//
// Parameters:
//   - s: the backend name
//
// Returns:
//   - RendererBackendType: the parsed backend
//   - bool: false if the name is not recognized
func ParseBackendType(s string) (RendererBackendType, bool) {
	switch s {
	case "host":
		return BackendTypeHost, true
	case "wgpu", "webgpu":
		return BackendTypeWGPU, true
	default:
		return BackendTypeHost, false
	}
}

// RendererBackend is the device-level contract shared by every backend. All methods are
// called by the renderer with the pipeline already resolved.
type RendererBackend interface {
	RegisterComputePipeline(p pipeline.Pipeline) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout []shader.BindingLayout, bufferSizes map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	BeginComputeFrame() error
	DispatchCompute(p pipeline.Pipeline, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error
	EndComputeFrame()
	ReadBuffer(provider bind_group_provider.BindGroupProvider, binding int) ([]byte, error)
	Release()
}
