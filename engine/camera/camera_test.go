package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUCameraUniforms_Layout(t *testing.T) {
	var u GPUCameraUniforms
	assert.Equal(t, 208, u.Size())

	u.View = mgl32.Translate3D(1, 2, 3)
	u.InvProj = mgl32.Scale3D(2, 2, 2)
	u.Near, u.Far = 0.5, 50
	buf := u.Marshal()
	require.Len(t, buf, 208)

	var got GPUCameraUniforms
	got.Unmarshal(buf)
	assert.Equal(t, u, got)

	got.Unmarshal(buf[:100])
	assert.Equal(t, GPUCameraUniforms{}, got)
}

func TestNewCamera_Defaults(t *testing.T) {
	cam, err := NewCamera()
	require.NoError(t, err)

	assert.True(t, cam.ViewMatrix().ApproxEqual(mgl32.Ident4()), "default view is identity")
	assert.Equal(t, float32(0.1), cam.Near())
	assert.Equal(t, float32(100), cam.Far())

	u := cam.Uniforms()
	assert.True(t, u.ViewProj.ApproxEqualThreshold(cam.ProjectionMatrix(), 1e-6))
	assert.True(t, u.InvProj.Mul4(cam.ProjectionMatrix()).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
}

func TestNewCamera_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []CameraBuilderOption
	}{
		{"zero fov", []CameraBuilderOption{WithFov(0)}},
		{"fov pi", []CameraBuilderOption{WithFov(math.Pi)}},
		{"zero aspect", []CameraBuilderOption{WithAspect(0)}},
		{"zero near", []CameraBuilderOption{WithNear(0)}},
		{"far before near", []CameraBuilderOption{WithNear(10), WithFar(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCamera(tt.opts...)
			assert.True(t, errors.Is(err, common.ErrInvalidConfiguration))
		})
	}
}

func TestCamera_InitAndFlush(t *testing.T) {
	r, err := renderer.NewRenderer()
	require.NoError(t, err)
	defer r.Release()

	cam, err := NewCamera(WithNear(1), WithFar(10))
	require.NoError(t, err)
	require.NoError(t, cam.Init(r))

	buf, err := r.ReadBuffer(cam.BindGroupProvider(), UniformBinding)
	require.NoError(t, err)
	require.Len(t, buf, 208)
	var u GPUCameraUniforms
	u.Unmarshal(buf)
	assert.Equal(t, float32(1), u.Near)
	assert.Equal(t, float32(10), u.Far)

	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	cam.Flush(r)
	buf, err = r.ReadBuffer(cam.BindGroupProvider(), UniformBinding)
	require.NoError(t, err)
	u.Unmarshal(buf)
	assert.True(t, u.View.ApproxEqual(mgl32.Translate3D(0, 0, -5)))
}

func TestOrbitController(t *testing.T) {
	ctrl := NewOrbitController(WithTarget(mgl32.Vec3{0, 0, 0}), WithRadius(10), WithElevation(0))
	assert.True(t, ctrl.Position().ApproxEqual(mgl32.Vec3{0, 0, 10}))

	ctrl.Zoom(4)
	assert.Equal(t, float32(6), ctrl.Radius())

	before := ctrl.Azimuth()
	ctrl.OrbitRight()
	assert.Greater(t, ctrl.Azimuth(), before)
	ctrl.OrbitLeft()
	assert.InDelta(t, before, ctrl.Azimuth(), 1e-6)

	for range 200 {
		ctrl.OrbitUp()
	}
	assert.Less(t, ctrl.Elevation(), float32(math.Pi/2))

	cam, err := NewCamera(WithController(ctrl))
	require.NoError(t, err)
	ctrl.OrbitDown()
	cam.Update()
	assert.Equal(t, ctrl.Position(), cam.Position())
	assert.Equal(t, ctrl.Target(), cam.Target())
}
