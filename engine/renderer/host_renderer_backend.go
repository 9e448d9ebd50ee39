package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/google/uuid"
)

const (
	// hostQueueDepth is the task queue capacity of the host worker pool.
	hostQueueDepth = 256

	// hostMaxTasksPerDispatch bounds how many tasks one dispatch is split into, which keeps a
	// single dispatch well below hostQueueDepth.
	hostMaxTasksPerDispatch = 64

	// hostWorkerIdle is how long an idle host worker lingers before exiting.
	hostWorkerIdle = 1 * time.Second
)

// hostBuffer is a Buffer backed by host memory.
type hostBuffer struct {
	id    string
	label string
	data  []byte
}

var _ bind_group_provider.Buffer = &hostBuffer{}

func newHostBuffer(label string, size uint64) *hostBuffer {
	return &hostBuffer{
		id:    uuid.NewString(),
		label: label,
		data:  make([]byte, size),
	}
}

func (b *hostBuffer) ID() string {
	return b.id
}

func (b *hostBuffer) Label() string {
	return b.label
}

func (b *hostBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *hostBuffer) Release() {
	b.data = nil
}

// hostDispatch is a compute pass recorded into an open host frame.
type hostDispatch struct {
	pipeline  pipeline.Pipeline
	provider  bind_group_provider.BindGroupProvider
	workGroup common.Dim3
}

// hostRendererBackendImpl executes compute stages on the CPU. Queue writes land immediately;
// dispatches are recorded between BeginComputeFrame and EndComputeFrame and executed on submit,
// one dispatch at a time, with the workgroups of each dispatch spread over the worker pool.
type hostRendererBackendImpl struct {
	mu *sync.Mutex

	pool    worker.DynamicWorkerPool
	workers int

	// frame holds the dispatches of the open compute frame, nil when no frame is open.
	frame []hostDispatch
	open  bool

	taskID int
}

var _ RendererBackend = &hostRendererBackendImpl{}

func newHostRendererBackend(workers int) *hostRendererBackendImpl {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &hostRendererBackendImpl{
		mu:      &sync.Mutex{},
		pool:    worker.NewDynamicWorkerPool(workers, hostQueueDepth, hostWorkerIdle),
		workers: workers,
	}
}

func (b *hostRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if p.HostKernel() == nil {
		return fmt.Errorf("pipeline %q has no host kernel", p.PipelineKey())
	}
	if p.Shader() == nil {
		return fmt.Errorf("compute shader must be set to create a compute pipeline")
	}
	p.SetComputePipeline(p.HostKernel())
	return nil
}

func (b *hostRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout []shader.BindingLayout, bufferSizes map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range layout {
		if provider.Buffer(entry.Binding) != nil {
			continue
		}
		size, ok := bufferSizes[entry.Binding]
		if !ok || size == 0 {
			return fmt.Errorf("%s: binding %d (%s) has no buffer size", provider.Label(), entry.Binding, entry.VarName)
		}
		buf := newHostBuffer(fmt.Sprintf("%s Buffer %d", provider.Label(), entry.Binding), size)
		provider.SetBuffer(entry.Binding, buf)
		common.Logger().Debug("buffer created", "provider", provider.Label(), "binding", entry.Binding, "size", size)
	}
	return nil
}

func (b *hostRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, ok := w.Provider.Buffer(w.Binding).(*hostBuffer)
		if !ok || buf == nil {
			common.Logger().Warn("buffer write dropped", "provider", w.Provider.Label(), "binding", w.Binding, "reason", "no buffer")
			continue
		}
		if !w.Fits(buf.Size()) {
			common.Logger().Warn("buffer write dropped", "provider", w.Provider.Label(), "binding", w.Binding, "end", w.End(), "size", buf.Size())
			continue
		}
		copy(buf.data[w.Offset:], w.Data)
	}
}

func (b *hostRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame = b.frame[:0]
	b.open = true
	return nil
}

func (b *hostRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return ErrNoComputeFrame
	}
	b.frame = append(b.frame, hostDispatch{
		pipeline:  p,
		provider:  computeProvider,
		workGroup: common.Dim3(workGroupCount),
	})
	return nil
}

func (b *hostRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return
	}
	for _, d := range b.frame {
		b.run(d)
	}
	b.frame = b.frame[:0]
	b.open = false
}

// run executes a single dispatch and returns once every workgroup has finished.
func (b *hostRendererBackendImpl) run(d hostDispatch) {
	kernel := d.pipeline.HostKernel()
	total := d.workGroup.Count()
	if kernel == nil || total == 0 {
		return
	}

	layout := d.pipeline.Bindings()
	maxBinding := -1
	for _, e := range layout {
		maxBinding = max(maxBinding, e.Binding)
	}
	bindings := make([][]byte, maxBinding+1)
	for _, e := range layout {
		buf, ok := d.provider.Buffer(e.Binding).(*hostBuffer)
		if !ok || buf == nil || buf.data == nil {
			common.Logger().Warn("dispatch dropped", "pipeline", d.pipeline.PipelineKey(), "binding", e.Binding, "reason", "unbound buffer")
			return
		}
		bindings[e.Binding] = buf.data
	}

	size := d.pipeline.WorkgroupSize()
	groups := d.workGroup
	tasks := min(total, uint32(min(b.workers*4, hostMaxTasksPerDispatch)))
	per := common.CeilDiv(total, tasks)

	var wg sync.WaitGroup
	for start := uint32(0); start < total; start += per {
		end := min(start+per, total)
		wg.Add(1)
		id := b.taskID
		b.taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for g := start; g < end; g++ {
					group := groups.Coord(g)
					for lz := uint32(0); lz < size[2]; lz++ {
						for ly := uint32(0); ly < size[1]; ly++ {
							for lx := uint32(0); lx < size[0]; lx++ {
								kernel(common.Dim3{
									group[0]*size[0] + lx,
									group[1]*size[1] + ly,
									group[2]*size[2] + lz,
								}, bindings)
							}
						}
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	common.Logger().Debug("dispatch executed", "pipeline", d.pipeline.PipelineKey(), "workgroups", groups, "tasks", tasks)
}

func (b *hostRendererBackendImpl) ReadBuffer(provider bind_group_provider.BindGroupProvider, binding int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := provider.Buffer(binding).(*hostBuffer)
	if !ok || buf == nil {
		return nil, fmt.Errorf("%s: binding %d has no host buffer", provider.Label(), binding)
	}
	out := make([]byte, len(buf.data))
	copy(out, buf.data)
	return out, nil
}

func (b *hostRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = nil
	b.open = false
}
