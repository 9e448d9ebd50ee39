package common

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDim3_IndexCoord(t *testing.T) {
	d := Dim3{16, 9, 24}
	require.Equal(t, uint32(16*9*24), d.Count())

	seen := make(map[uint32]bool, d.Count())
	for z := uint32(0); z < d[2]; z++ {
		for y := uint32(0); y < d[1]; y++ {
			for x := uint32(0); x < d[0]; x++ {
				c := Dim3{x, y, z}
				i := d.Index(c)
				require.Less(t, i, d.Count())
				require.False(t, seen[i], "index %d produced twice", i)
				seen[i] = true
				require.Equal(t, c, d.Coord(i))
			}
		}
	}
	assert.Equal(t, uint32(1), d.Index(Dim3{1, 0, 0}))
	assert.Equal(t, uint32(16), d.Index(Dim3{0, 1, 0}))
	assert.Equal(t, uint32(16*9), d.Index(Dim3{0, 0, 1}))
}

func TestDim3_Workgroups(t *testing.T) {
	tests := []struct {
		name string
		dim  Dim3
		size Dim3
		want Dim3
	}{
		{"exact", Dim3{16, 8, 24}, Dim3{4, 4, 4}, Dim3{4, 2, 6}},
		{"partial", Dim3{16, 9, 24}, Dim3{4, 4, 4}, Dim3{4, 3, 6}},
		{"single", Dim3{1, 1, 1}, Dim3{4, 4, 4}, Dim3{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dim.Workgroups(tt.size))
		})
	}
}

func TestDim3_Contains(t *testing.T) {
	d := Dim3{2, 3, 4}
	assert.True(t, d.Contains(Dim3{1, 2, 3}))
	assert.False(t, d.Contains(Dim3{2, 0, 0}))
	assert.False(t, d.Contains(Dim3{0, 3, 0}))
	assert.False(t, d.Contains(Dim3{0, 0, 4}))
}

func TestValidateDim(t *testing.T) {
	d, err := ValidateDim("dim", [3]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Dim3{1, 2, 3}, d)

	for _, bad := range [][3]int{{0, 1, 1}, {1, -1, 1}, {1, 1, 0}} {
		_, err := ValidateDim("dim", bad)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "%v", bad)
	}
}

func TestUtils(t *testing.T) {
	assert.Equal(t, uint32(0), CeilDiv(0, 128))
	assert.Equal(t, uint32(1), CeilDiv(1, 128))
	assert.Equal(t, uint32(4), CeilDiv(500, 128))
	assert.Equal(t, uint64(1056), AlignUp(32+4*256, 16))
	assert.Equal(t, uint64(48), AlignUp(36, 16))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
}

func TestPerspectiveZO_DepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := PerspectiveZO(mgl32.DegToRad(45), 16.0/9.0, near, far)

	assert.InDelta(t, 0, TransformPoint(proj, mgl32.Vec3{0, 0, -near})[2], 1e-5)
	assert.InDelta(t, 1, TransformPoint(proj, mgl32.Vec3{0, 0, -far})[2], 1e-4)

	// Unprojecting the near plane lands on view z = -near.
	p := TransformPoint(proj.Inv(), mgl32.Vec3{1, 1, 0})
	assert.InDelta(t, -near, p[2], 1e-4)
}
