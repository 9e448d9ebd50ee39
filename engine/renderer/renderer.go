package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
)

var (
	// ErrNoComputeFrame is returned when a dispatch is recorded outside BeginComputeFrame/EndComputeFrame.
	ErrNoComputeFrame = errors.New("no compute frame is open")

	// ErrUnknownPipeline is returned when a pipeline key has not been registered.
	ErrUnknownPipeline = errors.New("unknown pipeline")

	// ErrReadbackUnsupported is returned by backends that cannot copy buffers back to the host.
	ErrReadbackUnsupported = errors.New("buffer readback is not supported by this backend")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	workers              int
}

// Renderer defines the interface for the compute device.
//
// This is a high-level API that reduces the device to the operations the lighting stages
// need: pipeline registration, buffer/bind group creation, queue writes and batched compute
// submissions. Writes and submissions are applied in the order they are issued, exactly as
// a WebGPU queue orders them.
type Renderer interface {
	// BackendType returns the backend this renderer was created with.
	BackendType() RendererBackendType

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more compute pipelines via the backend, then caches
	// them by PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// InitBindGroup creates the buffers of a binding layout that the provider does not hold yet
	// and builds the backend bind group. Buffers already set on the provider (typically shared
	// from another provider) are bound as-is.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers and bind group on
	//   - layout: the binding layout, usually Pipeline.Bindings()
	//   - bufferSizes: buffer sizes in bytes for bindings that must be created, keyed by binding index
	//
	// Returns:
	//   - error: an error if a size is missing or buffer creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout []shader.BindingLayout, bufferSizes map[int]uint64) error

	// WriteBuffers writes all staged buffer writes to the device queue, in order.
	// Writes that target a missing binding or overrun the buffer are dropped with a warning.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame opens a command encoder batching every following DispatchCompute into
	// one submission. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute looks up the cached compute Pipeline by key and records a compute pass
	// within the current frame.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached compute Pipeline to use
	//   - computeProvider: the BindGroupProvider whose bind group is set on the pass
	//   - workGroupCount: the number of workgroups to dispatch in x, y and z
	//
	// Returns:
	//   - error: ErrUnknownPipeline or ErrNoComputeFrame; the dispatch is dropped in both cases
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// EndComputeFrame finishes the batched encoder and submits it to the queue. Dispatches run
	// in recording order; each observes every write of the dispatches before it.
	EndComputeFrame()

	// ReadBuffer copies the current contents of a provider buffer back to the host.
	//
	// Parameters:
	//   - provider: the provider owning the buffer
	//   - binding: the binding index of the buffer
	//
	// Returns:
	//   - []byte: a copy of the buffer contents
	//   - error: ErrReadbackUnsupported on backends without readback
	ReadBuffer(provider bind_group_provider.BindGroupProvider, binding int) ([]byte, error)

	// Release frees the backend device. Providers must be released by their owners first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the requested backend.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the WebGPU adapter or device could not be acquired
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   BackendTypeHost,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch r.backendType {
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("create wgpu backend: %w", err)
		}
		r.backend = b
	default:
		r.backend = newHostRendererBackend(r.workers)
	}
	common.Logger().Info("renderer created", "backend", r.backendType.String())
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterComputePipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		common.Logger().Debug("pipeline registered", "key", key, "workgroup_size", p.WorkgroupSize(), "bindings", len(p.Bindings()))
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout []shader.BindingLayout, bufferSizes map[int]uint64) error {
	return r.backend.InitBindGroup(provider, layout, bufferSizes)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.pipelineCache[pipelineKey]
	if !exists {
		common.Logger().Warn("dispatch dropped", "pipeline", pipelineKey, "reason", "unknown pipeline")
		return fmt.Errorf("%w: %q", ErrUnknownPipeline, pipelineKey)
	}

	if err := r.backend.DispatchCompute(p, computeProvider, workGroupCount); err != nil {
		common.Logger().Warn("dispatch dropped", "pipeline", pipelineKey, "err", err)
		return err
	}
	return nil
}

func (r *renderer) ReadBuffer(provider bind_group_provider.BindGroupProvider, binding int) ([]byte, error) {
	return r.backend.ReadBuffer(provider, binding)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
	r.pipelineCache = make(map[string]pipeline.Pipeline)
}
