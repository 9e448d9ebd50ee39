package cluster

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid(t *testing.T) {
	g, err := NewGrid()
	require.NoError(t, err)
	assert.Equal(t, common.Dim3{16, 9, 24}, g.Dim())
	assert.Equal(t, uint32(16*9*24), g.NumClusters())
	assert.Equal(t, uint32(256), g.MaxLightsPerCluster())
	assert.Equal(t, common.Dim3{4, 4, 4}, g.WorkgroupSize())
	assert.Equal(t, common.Dim3{4, 3, 6}, g.Workgroups())
	assert.Equal(t, float32(2), g.LightRadius())
	assert.Equal(t, uint64(1056), g.ClusterStride())
	assert.Equal(t, uint64(16+3456*1056), g.ClusterSetSize())

	tests := []struct {
		name string
		opts []GridBuilderOption
	}{
		{"zero dim", []GridBuilderOption{WithClusterDim(0, 9, 24)}},
		{"negative dim", []GridBuilderOption{WithClusterDim(16, -1, 24)}},
		{"zero workgroup", []GridBuilderOption{WithClusterWorkgroupSize(4, 0, 4)}},
		{"zero capacity", []GridBuilderOption{WithMaxLightsPerCluster(0)}},
		{"zero radius", []GridBuilderOption{WithLightRadius(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.opts...)
			assert.True(t, errors.Is(err, common.ErrInvalidConfiguration))
		})
	}
}

func TestClusterStride(t *testing.T) {
	tests := []struct {
		maxLights uint32
		want      uint64
	}{
		{1, 48},
		{4, 48},
		{5, 64},
		{256, 1056},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClusterStride(tt.maxLights), "maxLights=%d", tt.maxLights)
	}
}

func TestSliceDepth(t *testing.T) {
	near, far := float32(0.1), float32(100)
	assert.Equal(t, near, SliceDepth(0, 24, near, far))
	assert.Equal(t, far, SliceDepth(24, 24, near, far))

	prev := near
	for k := uint32(1); k <= 24; k++ {
		d := SliceDepth(k, 24, near, far)
		require.Greater(t, d, prev)
		// Logarithmic: constant ratio between boundaries.
		if k < 24 {
			assert.InEpsilon(t, SliceDepth(1, 24, near, far)/near, d/prev, 1e-4)
		}
		prev = d
	}
}

func TestClusterBounds(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := common.PerspectiveZO(mgl32.DegToRad(45), 1, near, far)
	invProj := proj.Inv()
	dim := common.Dim3{4, 2, 3}

	for i := uint32(0); i < dim.Count(); i++ {
		c := dim.Coord(i)
		minP, maxP := ClusterBounds(dim, invProj, near, far, c)
		require.True(t, minP[0] <= maxP[0] && minP[1] <= maxP[1] && minP[2] <= maxP[2], "%v", c)

		// Depth range is exactly the slice.
		assert.InEpsilon(t, -SliceDepth(c[2]+1, dim[2], near, far), minP[2], 1e-3, "%v", c)
		assert.InEpsilon(t, -SliceDepth(c[2], dim[2], near, far), maxP[2], 1e-3, "%v", c)

		// The center of the cluster's NDC cell, at mid-slice depth, lies inside its box.
		ndc := mgl32.Vec2{
			-1 + (2*float32(c[0])+1)/float32(dim[0]),
			-1 + (2*float32(c[1])+1)/float32(dim[1]),
		}
		ray := common.TransformPoint(invProj, mgl32.Vec3{ndc[0], ndc[1], 0})
		depth := (SliceDepth(c[2], dim[2], near, far) + SliceDepth(c[2]+1, dim[2], near, far)) / 2
		p := ray.Mul(depth / -ray[2])
		assert.True(t, SphereIntersectsAABB(p, 0, minP, maxP), "%v: %v not in [%v, %v]", c, p, minP, maxP)
	}

	// Row 0 is the bottom of the screen.
	lo, _ := ClusterBounds(dim, invProj, near, far, common.Dim3{0, 0, 0})
	_, hi := ClusterBounds(dim, invProj, near, far, common.Dim3{0, 1, 0})
	assert.Less(t, lo[1], float32(0))
	assert.Greater(t, hi[1], float32(0))
}

func TestSphereIntersectsAABB(t *testing.T) {
	minP, maxP := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}
	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{"inside", mgl32.Vec3{0.5, 0.5, 0.5}, 0.1, true},
		{"overlapping face", mgl32.Vec3{1.5, 0.5, 0.5}, 1, true},
		{"tangent face", mgl32.Vec3{2, 0.5, 0.5}, 1, true},
		{"just outside face", mgl32.Vec3{2.01, 0.5, 0.5}, 1, false},
		{"tangent corner", mgl32.Vec3{-3, -4, 0}, 5, true},
		{"outside corner", mgl32.Vec3{-3, -4, 0}, 4.99, false},
		{"zero radius on surface", mgl32.Vec3{1, 1, 1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SphereIntersectsAABB(tt.center, tt.radius, minP, maxP))
		})
	}
}
