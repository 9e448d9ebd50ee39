package cluster

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-clusters/engine/camera"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type binnerFixture struct {
	r      renderer.Renderer
	store  light.LightStore
	cam    camera.Camera
	binner Binner
}

func newBinnerFixture(t *testing.T, capacity int, gridOpts ...GridBuilderOption) *binnerFixture {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.WithWorkers(4))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	store, err := light.NewLightStore(r, light.WithCapacity(capacity), light.WithActiveCount(0), light.WithSeed(1))
	require.NoError(t, err)
	cam, err := camera.NewCamera()
	require.NoError(t, err)
	grid, err := NewGrid(gridOpts...)
	require.NoError(t, err)
	b, err := NewBinner(r, grid, store, cam)
	require.NoError(t, err)
	t.Cleanup(b.Release)

	return &binnerFixture{r: r, store: store, cam: cam, binner: b}
}

// place writes world-space positions into the first slots and activates exactly those lights.
func (f *binnerFixture) place(t *testing.T, positions ...mgl32.Vec3) {
	t.Helper()
	writes := make([]bind_group_provider.BufferWrite, 0, len(positions))
	for i, p := range positions {
		rec := light.GPULight{Position: p}
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: f.store.Provider(),
			Binding:  light.LightSetBinding,
			Offset:   light.LightOffset(uint32(i)),
			Data:     rec.Marshal()[:12],
		})
	}
	f.r.WriteBuffers(writes)
	require.NoError(t, f.store.SetActiveCount(len(positions)))
}

func (f *binnerFixture) run(t *testing.T) []Cluster {
	t.Helper()
	require.NoError(t, f.binner.Dispatch())
	clusters, err := f.binner.Snapshot()
	require.NoError(t, err)
	require.Len(t, clusters, int(f.binner.Grid().NumClusters()))
	return clusters
}

// expected bins positions by brute force against every cluster's bounds.
func (f *binnerFixture) expected(positions []mgl32.Vec3) [][]uint32 {
	grid := f.binner.Grid()
	u := f.cam.Uniforms()
	out := make([][]uint32, grid.NumClusters())
	for i := range out {
		minP, maxP := grid.Bounds(u.InvProj, u.Near, u.Far, grid.Dim().Coord(uint32(i)))
		out[i] = []uint32{}
		for j, p := range positions {
			if uint32(len(out[i])) == grid.MaxLightsPerCluster() {
				break
			}
			if SphereIntersectsAABB(mgl32.TransformCoordinate(p, u.View), grid.LightRadius(), minP, maxP) {
				out[i] = append(out[i], uint32(j))
			}
		}
	}
	return out
}

func TestBinner_Header(t *testing.T) {
	f := newBinnerFixture(t, 4, WithClusterDim(4, 2, 3))
	buf, err := f.r.ReadBuffer(f.binner.Provider(), ClusterSetBinding)
	require.NoError(t, err)
	assert.Equal(t, f.binner.Grid().ClusterSetSize(), uint64(len(buf)))
	assert.Equal(t, MarshalClusterSetHeader(24), buf[:ClusterSetHeaderSize])
}

func TestBinner_NoActiveLights(t *testing.T) {
	f := newBinnerFixture(t, 8, WithClusterDim(4, 2, 3))
	clusters := f.run(t)
	u := f.cam.Uniforms()
	grid := f.binner.Grid()
	for i, c := range clusters {
		assert.Zero(t, c.NumLights, "cluster %d", i)
		assert.Empty(t, c.LightIndices)
		minP, maxP := grid.Bounds(u.InvProj, u.Near, u.Far, grid.Dim().Coord(uint32(i)))
		assert.Equal(t, minP, c.MinPoint)
		assert.Equal(t, maxP, c.MaxPoint)
	}
}

func TestBinner_SingleLight(t *testing.T) {
	f := newBinnerFixture(t, 8)
	pos := []mgl32.Vec3{{0.5, 0.25, -10}}
	f.place(t, pos...)
	clusters := f.run(t)

	want := f.expected(pos)
	hits := 0
	for i, c := range clusters {
		assert.Equal(t, want[i], c.LightIndices, "cluster %d", i)
		assert.Equal(t, uint32(len(want[i])), c.NumLights)
		hits += int(c.NumLights)
	}
	assert.Positive(t, hits)

	// The cluster whose box holds the light's center must list it.
	u := f.cam.Uniforms()
	grid := f.binner.Grid()
	found := false
	for i, c := range clusters {
		minP, maxP := grid.Bounds(u.InvProj, u.Near, u.Far, grid.Dim().Coord(uint32(i)))
		if SphereIntersectsAABB(pos[0], 0, minP, maxP) {
			found = true
			assert.Equal(t, []uint32{0}, c.LightIndices, "cluster %d", i)
		}
	}
	assert.True(t, found)
}

func TestBinner_OutsideFrustum(t *testing.T) {
	f := newBinnerFixture(t, 8, WithClusterDim(4, 2, 3))
	f.place(t, mgl32.Vec3{0, 0, 50}, mgl32.Vec3{0, 0, -500})
	for i, c := range f.run(t) {
		assert.Zero(t, c.NumLights, "cluster %d", i)
	}
}

func TestBinner_SharedBoundary(t *testing.T) {
	f := newBinnerFixture(t, 4, WithClusterDim(2, 1, 1), WithLightRadius(0.01))
	f.place(t, mgl32.Vec3{0, 0, -5})
	clusters := f.run(t)
	require.Len(t, clusters, 2)
	assert.Equal(t, []uint32{0}, clusters[0].LightIndices)
	assert.Equal(t, []uint32{0}, clusters[1].LightIndices)
}

func TestBinner_Overflow(t *testing.T) {
	f := newBinnerFixture(t, 16, WithClusterDim(4, 2, 3), WithMaxLightsPerCluster(4))
	pos := make([]mgl32.Vec3, 10)
	for i := range pos {
		pos[i] = mgl32.Vec3{0, 0, -10}
	}
	f.place(t, pos...)

	touched := 0
	for i, c := range f.run(t) {
		if c.NumLights == 0 {
			continue
		}
		touched++
		assert.Equal(t, uint32(4), c.NumLights, "cluster %d", i)
		assert.Equal(t, []uint32{0, 1, 2, 3}, c.LightIndices, "cluster %d", i)
	}
	assert.Positive(t, touched)
}

func TestBinner_ManyLights(t *testing.T) {
	f := newBinnerFixture(t, 64, WithClusterDim(8, 4, 6), WithMaxLightsPerCluster(8))
	pos := make([]mgl32.Vec3, 64)
	for i := range pos {
		fi := float32(i)
		pos[i] = mgl32.Vec3{float32(i%8) - 4, float32(i%5) - 2, -2 - fi*0.7}
	}
	f.place(t, pos...)
	clusters := f.run(t)

	want := f.expected(pos)
	for i, c := range clusters {
		require.Equal(t, want[i], c.LightIndices, "cluster %d", i)
		for k := 1; k < len(c.LightIndices); k++ {
			assert.Less(t, c.LightIndices[k-1], c.LightIndices[k])
		}
	}
}

func TestBinner_Rerun(t *testing.T) {
	f := newBinnerFixture(t, 16, WithClusterDim(4, 2, 3))
	f.place(t, mgl32.Vec3{1, 1, -8}, mgl32.Vec3{-2, 0, -20})
	first := f.run(t)
	assert.Equal(t, first, f.run(t))

	// Shrinking the active count leaves nothing behind from the previous run.
	require.NoError(t, f.store.SetActiveCount(0))
	for i, c := range f.run(t) {
		assert.Zero(t, c.NumLights, "cluster %d", i)
	}
}

func TestBinner_EncodeNeedsFrame(t *testing.T) {
	f := newBinnerFixture(t, 4, WithClusterDim(2, 2, 2))
	assert.ErrorIs(t, f.binner.Encode(), renderer.ErrNoComputeFrame)

	require.NoError(t, f.r.BeginComputeFrame())
	require.NoError(t, f.binner.Encode())
	f.r.EndComputeFrame()
}

func TestBinner_LightAtCameraOrigin(t *testing.T) {
	f := newBinnerFixture(t, 4, WithClusterDim(1, 1, 1))
	f.place(t, mgl32.Vec3{0, 0, 0})
	clusters := f.run(t)
	require.Len(t, clusters, 1)
	assert.Equal(t, uint32(1), clusters[0].NumLights)
	assert.Equal(t, []uint32{0}, clusters[0].LightIndices)
}

func TestBinner_SingleClusterOverflow(t *testing.T) {
	const maxLights = 8
	f := newBinnerFixture(t, maxLights+5, WithClusterDim(1, 1, 1), WithMaxLightsPerCluster(maxLights))
	pos := make([]mgl32.Vec3, maxLights+5)
	for i := range pos {
		pos[i] = mgl32.Vec3{0, 0, -float32(i) - 1}
	}
	f.place(t, pos...)
	clusters := f.run(t)
	require.Len(t, clusters, 1)
	assert.Equal(t, uint32(maxLights), clusters[0].NumLights)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7}, clusters[0].LightIndices)
}
