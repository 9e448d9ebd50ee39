package cluster

import (
	"math"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/go-gl/mathgl/mgl32"
)

// SliceDepth returns the view-space distance of depth slice boundary k out of slices,
// spaced logarithmically: near * (far/near)^(k/slices). Boundary 0 is near, boundary
// slices is far.
func SliceDepth(k, slices uint32, near, far float32) float32 {
	if k >= slices {
		return far
	}
	return near * float32(math.Pow(float64(far/near), float64(k)/float64(slices)))
}

// ClusterBounds computes the view-space AABB of the cluster at coord. The cluster's NDC
// rectangle is unprojected onto the near plane, each corner is pushed along its view ray to
// the slice's near and far depths, and the box enclosing those 8 points is returned.
// NDC y = -1 is row 0. The camera looks down -Z, so depths are negated view z.
//
// Parameters:
//   - dim: the grid dimensions
//   - invProj: the inverse projection matrix
//   - near: the near plane distance
//   - far: the far plane distance
//   - coord: the cluster coordinate
//
// Returns:
//   - mgl32.Vec3: the minimum corner
//   - mgl32.Vec3: the maximum corner
func ClusterBounds(dim common.Dim3, invProj mgl32.Mat4, near, far float32, coord common.Dim3) (mgl32.Vec3, mgl32.Vec3) {
	x0 := -1 + 2*float32(coord[0])/float32(dim[0])
	x1 := -1 + 2*float32(coord[0]+1)/float32(dim[0])
	y0 := -1 + 2*float32(coord[1])/float32(dim[1])
	y1 := -1 + 2*float32(coord[1]+1)/float32(dim[1])
	dNear := SliceDepth(coord[2], dim[2], near, far)
	dFar := SliceDepth(coord[2]+1, dim[2], near, far)

	corners := [4]mgl32.Vec3{
		common.TransformPoint(invProj, mgl32.Vec3{x0, y0, 0}),
		common.TransformPoint(invProj, mgl32.Vec3{x1, y0, 0}),
		common.TransformPoint(invProj, mgl32.Vec3{x0, y1, 0}),
		common.TransformPoint(invProj, mgl32.Vec3{x1, y1, 0}),
	}

	inf := float32(math.Inf(1))
	minPoint := mgl32.Vec3{inf, inf, inf}
	maxPoint := mgl32.Vec3{-inf, -inf, -inf}
	for _, c := range corners {
		for _, d := range [2]float32{dNear, dFar} {
			p := c.Mul(d / -c[2])
			for i := range 3 {
				minPoint[i] = min(minPoint[i], p[i])
				maxPoint[i] = max(maxPoint[i], p[i])
			}
		}
	}
	return minPoint, maxPoint
}

// SphereIntersectsAABB reports whether a sphere overlaps a box. The test is closed: a sphere
// touching the box surface counts as overlapping.
//
// Parameters:
//   - center: the sphere center
//   - radius: the sphere radius
//   - minPoint: the box's minimum corner
//   - maxPoint: the box's maximum corner
//
// Returns:
//   - bool: true if the squared distance from center to the box is <= radius^2
func SphereIntersectsAABB(center mgl32.Vec3, radius float32, minPoint, maxPoint mgl32.Vec3) bool {
	d := center.Sub(common.Clamp3(center, minPoint, maxPoint))
	return d.Dot(d) <= radius*radius
}
