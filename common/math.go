package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveZO creates a right-handed perspective projection matrix that maps view-space
// depth into WebGPU clip space, where Z lies in [0, 1] rather than OpenGL's [-1, 1].
// mgl32.Perspective uses the OpenGL convention, so the camera and the cluster bounds
// math both go through this helper instead.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var out mgl32.Mat4

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// TransformPoint multiplies a point by a 4x4 matrix and performs the homogeneous divide.
// A zero W component leaves the point undivided.
//
// Parameters:
//   - m: the column-major transform
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] == 0 {
		return v.Vec3()
	}
	return v.Vec3().Mul(1.0 / v[3])
}

// Clamp3 clamps each component of v into [lo, hi].
func Clamp3(v, lo, hi mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		mgl32.Clamp(v[0], lo[0], hi[0]),
		mgl32.Clamp(v[1], lo[1], hi[1]),
		mgl32.Clamp(v[2], lo[2], hi[2]),
	}
}
