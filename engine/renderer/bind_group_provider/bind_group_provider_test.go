package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	id       string
	size     uint64
	released bool
}

func (b *fakeBuffer) ID() string    { return b.id }
func (b *fakeBuffer) Label() string { return b.id }
func (b *fakeBuffer) Size() uint64  { return b.size }
func (b *fakeBuffer) Release()      { b.released = true }

type fakeBindGroup struct {
	released bool
}

func (g *fakeBindGroup) Release() { g.released = true }

func TestBindGroupProvider_Bindings(t *testing.T) {
	a, b, c := &fakeBuffer{id: "a"}, &fakeBuffer{id: "b"}, &fakeBuffer{id: "c"}
	p := NewBindGroupProvider("test",
		WithBuffer(2, c),
		WithBuffer(0, a),
		WithSharedBuffer(1, b),
	)

	assert.Equal(t, "test", p.Label())
	assert.Equal(t, []int{0, 1, 2}, p.Bindings())
	assert.Same(t, b, p.Buffer(1))
	assert.Nil(t, p.Buffer(3))
}

func TestBindGroupProvider_ReleaseKeepsSharedBuffers(t *testing.T) {
	owned, shared := &fakeBuffer{id: "owned"}, &fakeBuffer{id: "shared"}
	bg := &fakeBindGroup{}
	p := NewBindGroupProvider("test", WithBuffer(0, owned), WithSharedBuffer(1, shared))
	p.SetBindGroup(bg)

	p.Release()

	assert.True(t, owned.released)
	assert.False(t, shared.released)
	assert.True(t, bg.released)
	assert.Empty(t, p.Bindings())
	assert.Nil(t, p.BindGroup())
}

func TestBindGroupProvider_SetBufferClearsShared(t *testing.T) {
	first, second := &fakeBuffer{id: "first"}, &fakeBuffer{id: "second"}
	p := NewBindGroupProvider("test", WithSharedBuffer(0, first))
	p.SetBuffer(0, second)

	p.Release()

	assert.False(t, first.released)
	assert.True(t, second.released)
}

func TestBufferWrite_Fits(t *testing.T) {
	tests := []struct {
		name   string
		offset uint64
		n      int
		size   uint64
		want   bool
	}{
		{"header", 0, 4, 16, true},
		{"exact end", 12, 4, 16, true},
		{"overrun", 13, 4, 16, false},
		{"offset past end", 17, 0, 16, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := BufferWrite{Offset: tt.offset, Data: make([]byte, tt.n)}
			require.Equal(t, tt.offset+uint64(tt.n), w.End())
			assert.Equal(t, tt.want, w.Fits(tt.size))
		})
	}
}
