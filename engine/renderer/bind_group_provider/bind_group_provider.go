package bind_group_provider

import (
	"sort"
	"sync"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.RWMutex

	// label is a debug label added for convenience.
	label string

	// buffers holds the device buffers for this provider, keyed by binding index. A buffer may be
	// shared by several providers (e.g. the light set is bound by both compute stages).
	buffers map[int]Buffer

	// shared records which bindings were handed in from another provider and must not be
	// released by this one.
	shared map[int]bool

	// bindGroup is the backend bind group object (a *wgpu.BindGroup on the WebGPU backend, nil on the
	// host backend), populated by the Renderer during InitBindGroup.
	bindGroup any
}

// BindGroupProvider groups the device buffers a compute stage binds at @group(0), keyed by
// binding index. Components (light store, camera, binner) hold a provider to describe their
// binding requirements; the Renderer creates the buffers and the backend bind group for it.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a unique label
//  2. Buffers owned elsewhere are shared in with SetSharedBuffer
//  3. Renderer.InitBindGroup(provider, layout, sizes) creates the remaining buffers
//  4. Renderer.WriteBuffers / DispatchCompute address buffers through the provider
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	Label() string

	// Buffer returns the buffer at the given binding, or nil if none has been created or shared.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - Buffer: the buffer or nil
	Buffer(binding int) Buffer

	// Bindings returns the populated binding indices in ascending order.
	//
	// Returns:
	//   - []int: the sorted binding indices
	Bindings() []int

	// SetBuffer stores a buffer this provider owns at the given binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf Buffer)

	// SetSharedBuffer stores a buffer owned by another provider. Release leaves it alone.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetSharedBuffer(binding int, buf Buffer)

	// BindGroup returns the backend bind group object, or nil if not initialized.
	BindGroup() any

	// SetBindGroup stores the backend bind group object. Called by Renderer.InitBindGroup().
	SetBindGroup(bg any)

	// Release releases every buffer this provider owns and forgets the bind group.
	Release()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label used for the provider and the buffers created for it
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]Buffer),
		shared:  make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Buffer(binding int) Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) Bindings() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int, 0, len(p.buffers))
	for b := range p.buffers {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

func (p *bindGroupProvider) SetBuffer(binding int, buf Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers[binding] = buf
	delete(p.shared, binding)
}

func (p *bindGroupProvider) SetSharedBuffer(binding int, buf Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers[binding] = buf
	p.shared[binding] = true
}

func (p *bindGroupProvider) BindGroup() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroup = bg
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for binding, buf := range p.buffers {
		if !p.shared[binding] && buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	p.shared = make(map[int]bool)
	if r, ok := p.bindGroup.(interface{ Release() }); ok {
		r.Release()
	}
	p.bindGroup = nil
}
