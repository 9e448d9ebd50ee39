package cluster

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxLightsPerCluster is the default per-cluster light index capacity.
	MaxLightsPerCluster = 256

	// LightRadius is the default view-space radius of every light's bounding sphere.
	LightRadius = 2.0
)

var (
	// ClusterDim is the default number of clusters along x, y and z.
	ClusterDim = common.Dim3{16, 9, 24}

	// ClusterWorkgroupSize is the default workgroup size of the clustering stage.
	ClusterWorkgroupSize = common.Dim3{4, 4, 4}
)

type gridImpl struct {
	dimRaw           [3]int
	workgroupSizeRaw [3]int
	maxLights        int
	lightRadius      float32

	dim           common.Dim3
	workgroupSize common.Dim3
}

// Grid is the immutable description of the cluster grid: how the view frustum is partitioned
// and how large every cluster record is. Depth slices are logarithmic between near and far.
type Grid interface {
	// Dim returns the number of clusters along x, y and z.
	Dim() common.Dim3

	// NumClusters returns X*Y*Z.
	NumClusters() uint32

	// MaxLightsPerCluster returns the capacity of each cluster's index list.
	MaxLightsPerCluster() uint32

	// WorkgroupSize returns the workgroup size of the clustering stage.
	WorkgroupSize() common.Dim3

	// Workgroups returns the dispatch size covering every cluster.
	Workgroups() common.Dim3

	// LightRadius returns the view-space bounding sphere radius used for binning.
	LightRadius() float32

	// ClusterStride returns the byte size of one cluster record.
	ClusterStride() uint64

	// ClusterSetSize returns the byte size of the whole cluster set buffer.
	ClusterSetSize() uint64

	// Bounds computes the view-space AABB of the cluster at coord.
	//
	// Parameters:
	//   - invProj: the inverse projection matrix of the camera
	//   - near: the camera's near plane distance
	//   - far: the camera's far plane distance
	//   - coord: the cluster coordinate, inside Dim
	//
	// Returns:
	//   - mgl32.Vec3: the minimum corner
	//   - mgl32.Vec3: the maximum corner
	Bounds(invProj mgl32.Mat4, near, far float32, coord common.Dim3) (mgl32.Vec3, mgl32.Vec3)
}

var _ Grid = &gridImpl{}

// NewGrid validates the grid tunables.
//
// Parameters:
//   - options: functional options to configure the grid
//
// Returns:
//   - Grid: the grid
//   - error: common.ErrInvalidConfiguration (wrapped) for any non-positive dimension,
//     workgroup component, capacity or radius
func NewGrid(options ...GridBuilderOption) (Grid, error) {
	g := &gridImpl{
		dimRaw:           [3]int{int(ClusterDim[0]), int(ClusterDim[1]), int(ClusterDim[2])},
		workgroupSizeRaw: [3]int{int(ClusterWorkgroupSize[0]), int(ClusterWorkgroupSize[1]), int(ClusterWorkgroupSize[2])},
		maxLights:        MaxLightsPerCluster,
		lightRadius:      LightRadius,
	}
	for _, opt := range options {
		opt(g)
	}

	var err error
	if g.dim, err = common.ValidateDim("cluster dim", g.dimRaw); err != nil {
		return nil, err
	}
	if g.workgroupSize, err = common.ValidateDim("cluster workgroup size", g.workgroupSizeRaw); err != nil {
		return nil, err
	}
	if g.maxLights <= 0 {
		return nil, fmt.Errorf("max lights per cluster %d: %w", g.maxLights, common.ErrInvalidConfiguration)
	}
	if !(g.lightRadius > 0) {
		return nil, fmt.Errorf("light radius %v: %w", g.lightRadius, common.ErrInvalidConfiguration)
	}
	return g, nil
}

func (g *gridImpl) Dim() common.Dim3 {
	return g.dim
}

func (g *gridImpl) NumClusters() uint32 {
	return g.dim.Count()
}

func (g *gridImpl) MaxLightsPerCluster() uint32 {
	return uint32(g.maxLights)
}

func (g *gridImpl) WorkgroupSize() common.Dim3 {
	return g.workgroupSize
}

func (g *gridImpl) Workgroups() common.Dim3 {
	return g.dim.Workgroups(g.workgroupSize)
}

func (g *gridImpl) LightRadius() float32 {
	return g.lightRadius
}

func (g *gridImpl) ClusterStride() uint64 {
	return ClusterStride(g.MaxLightsPerCluster())
}

func (g *gridImpl) ClusterSetSize() uint64 {
	return ClusterSetSize(g.NumClusters(), g.MaxLightsPerCluster())
}

func (g *gridImpl) Bounds(invProj mgl32.Mat4, near, far float32, coord common.Dim3) (mgl32.Vec3, mgl32.Vec3) {
	return ClusterBounds(g.dim, invProj, near, far, coord)
}
