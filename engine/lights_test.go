package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/camera"
	"github.com/Carmen-Shannon/oxy-clusters/engine/cluster"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLights(t *testing.T, options ...LightsBuilderOption) (renderer.Renderer, *Lights) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.WithWorkers(4))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	cam, err := camera.NewCamera(camera.WithPosition(mgl32.Vec3{0, 6, 25}), camera.WithLookAt(mgl32.Vec3{0, 6, 0}))
	require.NoError(t, err)

	opts := append([]LightsBuilderOption{
		WithLightStoreOptions(light.WithCapacity(64), light.WithActiveCount(32), light.WithSeed(3)),
		WithGridOptions(cluster.WithClusterDim(4, 3, 4), cluster.WithMaxLightsPerCluster(16)),
	}, options...)
	l, err := NewLights(r, cam, opts...)
	require.NoError(t, err)
	t.Cleanup(l.Release)
	return r, l
}

// checkFrame verifies positions and cluster contents against the motion function at time tm.
func checkFrame(t *testing.T, l *Lights, tm float32) {
	t.Helper()
	set, err := l.Store().Snapshot()
	require.NoError(t, err)

	params := l.Animator().Params()
	positions := make([]mgl32.Vec3, l.NumLights())
	for i := range positions {
		positions[i] = light.LightPosition(uint32(i), tm, params)
		require.Equal(t, [3]float32(positions[i]), set.Lights[i].Position, "light %d", i)
	}

	clusters, err := l.Binner().Snapshot()
	require.NoError(t, err)
	grid := l.Grid()
	u := l.Camera().Uniforms()
	for i, c := range clusters {
		minP, maxP := grid.Bounds(u.InvProj, u.Near, u.Far, grid.Dim().Coord(uint32(i)))
		want := []uint32{}
		for j, p := range positions {
			if uint32(len(want)) == grid.MaxLightsPerCluster() {
				break
			}
			if cluster.SphereIntersectsAABB(mgl32.TransformCoordinate(p, u.View), grid.LightRadius(), minP, maxP) {
				want = append(want, uint32(j))
			}
		}
		require.Equal(t, want, c.LightIndices, "cluster %d", i)
	}
}

func TestLights_Frame(t *testing.T) {
	_, l := newTestLights(t)

	require.NoError(t, l.Frame(1.5))
	checkFrame(t, l, 1.5)

	require.NoError(t, l.Frame(4))
	checkFrame(t, l, 4)

	scopes := l.Profiler().Scopes()
	require.Len(t, scopes, 2)
	assert.Equal(t, ScopeClusterLights, scopes[0].Name)
	assert.Equal(t, 2, scopes[0].Count)
	assert.Equal(t, ScopeMoveLights, scopes[1].Name)
	assert.Equal(t, 2, scopes[1].Count)
}

func TestLights_SetNumLights(t *testing.T) {
	_, l := newTestLights(t)

	require.NoError(t, l.SetNumLights(64))
	assert.Equal(t, 64, l.NumLights())
	require.NoError(t, l.Frame(2))
	checkFrame(t, l, 2)

	assert.ErrorIs(t, l.SetNumLights(65), light.ErrInvalidArgument)
	assert.ErrorIs(t, l.SetNumLights(-1), light.ErrInvalidArgument)
	assert.Equal(t, 64, l.NumLights())

	require.NoError(t, l.SetNumLights(0))
	require.NoError(t, l.Frame(3))
	clusters, err := l.Binner().Snapshot()
	require.NoError(t, err)
	for i, c := range clusters {
		assert.Zero(t, c.NumLights, "cluster %d", i)
	}
}

func TestLights_Encode(t *testing.T) {
	r, l := newTestLights(t)

	assert.ErrorIs(t, l.Encode(1), renderer.ErrNoComputeFrame)

	require.NoError(t, r.BeginComputeFrame())
	require.NoError(t, l.Encode(2.5))
	r.EndComputeFrame()
	checkFrame(t, l, 2.5)
}

func TestLights_CameraMove(t *testing.T) {
	_, l := newTestLights(t)
	require.NoError(t, l.Frame(1))

	l.Camera().SetPosition(mgl32.Vec3{10, 3, 15})
	require.NoError(t, l.Frame(1))
	checkFrame(t, l, 1)
}

func TestNewLights_InvalidConfiguration(t *testing.T) {
	r, err := renderer.NewRenderer()
	require.NoError(t, err)
	defer r.Release()
	cam, err := camera.NewCamera()
	require.NoError(t, err)

	tests := []struct {
		name string
		opts []LightsBuilderOption
	}{
		{"grid", []LightsBuilderOption{WithGridOptions(cluster.WithClusterDim(0, 1, 1))}},
		{"store", []LightsBuilderOption{WithLightStoreOptions(light.WithCapacity(0))}},
		{"animator", []LightsBuilderOption{WithAnimatorOptions(light.WithWorkgroupSize(0))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLights(r, cam, tt.opts...)
			assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
		})
	}
}
