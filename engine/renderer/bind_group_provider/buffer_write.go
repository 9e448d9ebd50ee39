package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// End returns the exclusive end offset of the write in bytes.
func (w BufferWrite) End() uint64 {
	return w.Offset + uint64(len(w.Data))
}

// Fits reports whether the write lies entirely inside a buffer of the given size.
// Writes that do not fit are dropped by the renderer, mirroring a WebGPU validation error.
func (w BufferWrite) Fits(size uint64) bool {
	return w.End() <= size
}
