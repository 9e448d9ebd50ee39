package bind_group_provider

// Buffer is a device-shared buffer created by a renderer backend. The host backend
// backs it with a byte slice, the WebGPU backend with a *wgpu.Buffer; consumers only
// ever address it through its owning provider and binding index.
type Buffer interface {
	// ID returns the unique identifier assigned when the buffer was created.
	ID() string

	// Label returns the debug label for this buffer.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the backing memory. The buffer must not be used afterwards.
	Release()
}
