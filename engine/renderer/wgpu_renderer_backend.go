package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// wgpuBuffer wraps a *wgpu.Buffer so providers can hold it behind the Buffer interface.
type wgpuBuffer struct {
	id    string
	label string
	size  uint64
	buf   *wgpu.Buffer
}

var _ bind_group_provider.Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) ID() string {
	return b.id
}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	// Compute frame state for batching all compute dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, err
	}
	w.adapter = a

	limits := wgpu.DefaultLimits()

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Lighting Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, err
	}
	w.device = d
	w.queue = d.GetQueue()

	common.Logger().Info("wgpu device acquired", "fallback", forceFallbackAdapter)
	return w, nil
}

// bindGroupLayoutDescriptor converts a binding layout into a compute-visible WebGPU layout descriptor.
func bindGroupLayoutDescriptor(label string, layout []shader.BindingLayout) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, len(layout))
	for i, l := range layout {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(l.Binding),
			Visibility: wgpu.ShaderStageCompute,
		}
		switch l.Type {
		case shader.BindingTypeUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case shader.BindingTypeReadOnlyStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		default:
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		entries[i] = entry
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	}
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader()
	if computeShader == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	s, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: computeShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: computeShader.Source(),
		},
	})
	if err != nil {
		return err
	}
	defer s.Release()

	desc := bindGroupLayoutDescriptor(p.PipelineKey()+" Bind Group Layout", p.Bindings())
	bgl, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return err
	}

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     s,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	p.SetComputePipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout []shader.BindingLayout, bufferSizes map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(layout) == 0 {
		return nil
	}

	desc := bindGroupLayoutDescriptor(provider.Label()+" Bind Group Layout", layout)
	bgl, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return err
	}
	defer bgl.Release()

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(layout))
	for i, entry := range layout {
		var usage wgpu.BufferUsage
		switch entry.Type {
		case shader.BindingTypeUniform:
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		default:
			usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
		}

		buf, _ := provider.Buffer(entry.Binding).(*wgpuBuffer)
		if buf == nil {
			size, ok := bufferSizes[entry.Binding]
			if !ok || size == 0 {
				return fmt.Errorf("%s: binding %d (%s) has no buffer size", provider.Label(), entry.Binding, entry.VarName)
			}
			label := fmt.Sprintf("%s Buffer %d", provider.Label(), entry.Binding)
			created, bufErr := b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: label,
				Size:  size,
				Usage: usage,
			})
			if bufErr != nil {
				return bufErr
			}
			buf = &wgpuBuffer{id: uuid.NewString(), label: label, size: size, buf: created}
			provider.SetBuffer(entry.Binding, buf)
			common.Logger().Debug("buffer created", "provider", provider.Label(), "binding", entry.Binding, "size", size)
		}
		bindGroupEntries[i] = wgpu.BindGroupEntry{
			Binding: uint32(entry.Binding),
			Buffer:  buf.buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  bgl,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, _ := w.Provider.Buffer(w.Binding).(*wgpuBuffer)
		if buf == nil || buf.buf == nil {
			common.Logger().Warn("buffer write dropped", "provider", w.Provider.Label(), "binding", w.Binding, "reason", "no buffer")
			continue
		}
		if !w.Fits(buf.size) {
			common.Logger().Warn("buffer write dropped", "provider", w.Provider.Label(), "binding", w.Binding, "end", w.End(), "size", buf.size)
			continue
		}
		b.queue.WriteBuffer(buf.buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.computeFrameEncoder.Release()
	b.computeFrameEncoder = nil
}

func (b *wgpuRendererBackendImpl) DispatchCompute(
	p pipeline.Pipeline,
	computeProvider bind_group_provider.BindGroupProvider,
	workGroupCount [3]uint32,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return ErrNoComputeFrame
	}

	computePipeline, ok := p.Pipeline().(*wgpu.ComputePipeline)
	if !ok {
		return fmt.Errorf("%w: %q has no compute pipeline", ErrUnknownPipeline, p.PipelineKey())
	}
	bindGroup, ok := computeProvider.BindGroup().(*wgpu.BindGroup)
	if !ok {
		return fmt.Errorf("%s: bind group not initialized", computeProvider.Label())
	}

	pass := b.computeFrameEncoder.BeginComputePass(nil)
	pass.SetPipeline(computePipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
	return nil
}

// ReadBuffer is not implemented on the WebGPU backend; mapping a staging buffer would
// stall the frame and nothing in the lighting path needs it.
func (b *wgpuRendererBackendImpl) ReadBuffer(provider bind_group_provider.BindGroupProvider, binding int) ([]byte, error) {
	return nil, ErrReadbackUnsupported
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder != nil {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
