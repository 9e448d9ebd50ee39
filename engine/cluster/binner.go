package cluster

import (
	_ "embed"
	"fmt"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/camera"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

//go:embed assets/clustering.cs.wgsl
var clusteringSource string

const (
	// ClusterLightsPipelineKey is the renderer pipeline key of the clustering stage.
	ClusterLightsPipelineKey = "cluster_lights"

	// LightSetBinding is the binding of the shared light set buffer on the binner's provider.
	LightSetBinding = 0

	// ClusterSetBinding is the binding of the cluster set buffer.
	ClusterSetBinding = 1

	// CameraBinding is the binding of the shared camera uniform buffer.
	CameraBinding = 2
)

type binnerImpl struct {
	mu *sync.Mutex
	r  renderer.Renderer

	label string
	grid  Grid
	store light.LightStore
	cam   camera.Camera

	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider
}

// Binner rebuilds the cluster set every frame: each cluster's view-space bounds and the
// ascending list of active lights whose bounding sphere overlaps it. Nothing carries over
// between runs, so the same inputs always produce the same buffer.
type Binner interface {
	// Grid returns the grid the binner was built for.
	Grid() Grid

	// Encode records the clustering dispatch into the renderer's open compute frame.
	//
	// Returns:
	//   - error: renderer errors for a missing frame
	Encode() error

	// Dispatch runs the clustering stage in a compute frame of its own and submits it.
	//
	// Returns:
	//   - error: an error if the frame could not be opened
	Dispatch() error

	// Snapshot reads the cluster set buffer back and decodes it.
	//
	// Returns:
	//   - []Cluster: one entry per cluster in index order
	//   - error: renderer.ErrReadbackUnsupported on backends without readback
	Snapshot() ([]Cluster, error)

	// Provider returns the bind group provider; the cluster set buffer sits at ClusterSetBinding
	// for the shading side to bind.
	Provider() bind_group_provider.BindGroupProvider

	// Release frees the cluster set buffer. Shared light and camera buffers stay with their owners.
	Release()
}

var _ Binner = &binnerImpl{}

// NewBinner allocates the cluster set buffer, writes its cluster count once and registers the
// cluster_lights pipeline. The camera's uniform buffer is initialized on r if it has not been.
//
// Parameters:
//   - r: the renderer
//   - grid: the cluster grid
//   - store: the light store whose active lights are binned
//   - cam: the camera providing the view and inverse projection
//   - options: functional options to configure the binner
//
// Returns:
//   - Binner: the binner
//   - error: shader or device errors
func NewBinner(r renderer.Renderer, grid Grid, store light.LightStore, cam camera.Camera, options ...BinnerBuilderOption) (Binner, error) {
	b := &binnerImpl{
		mu:    &sync.Mutex{},
		r:     r,
		label: ClusterLightsPipelineKey,
		grid:  grid,
		store: store,
		cam:   cam,
	}
	for _, opt := range options {
		opt(b)
	}

	if cam.BindGroupProvider().Buffer(camera.UniformBinding) == nil {
		if err := cam.Init(r); err != nil {
			return nil, err
		}
	}

	dim, wg := grid.Dim(), grid.WorkgroupSize()
	cs, err := shader.NewShader(ClusterLightsPipelineKey, clusteringSource, map[string]string{
		"clusterDimX":           shader.U32(dim[0]),
		"clusterDimY":           shader.U32(dim[1]),
		"clusterDimZ":           shader.U32(dim[2]),
		"maxLightsPerCluster":   shader.U32(grid.MaxLightsPerCluster()),
		"lightRadius":           shader.F32(grid.LightRadius()),
		"clusterWorkgroupSizeX": strconv.FormatUint(uint64(wg[0]), 10),
		"clusterWorkgroupSizeY": strconv.FormatUint(uint64(wg[1]), 10),
		"clusterWorkgroupSizeZ": strconv.FormatUint(uint64(wg[2]), 10),
	})
	if err != nil {
		return nil, err
	}

	key := ClusterLightsPipelineKey
	if r.Pipeline(key) != nil {
		key = fmt.Sprintf("%s_%s", ClusterLightsPipelineKey, uuid.NewString()[:8])
	}
	b.pipeline = pipeline.NewPipeline(key,
		pipeline.WithComputeShader(cs),
		pipeline.WithHostKernel(b.clusterLights),
	)
	if err := r.RegisterPipelines(b.pipeline); err != nil {
		return nil, err
	}

	b.provider = bind_group_provider.NewBindGroupProvider(b.label+"_"+uuid.NewString()[:8],
		bind_group_provider.WithSharedBuffer(LightSetBinding, store.Provider().Buffer(light.LightSetBinding)),
		bind_group_provider.WithSharedBuffer(CameraBinding, cam.BindGroupProvider().Buffer(camera.UniformBinding)),
	)
	size := grid.ClusterSetSize()
	if err := r.InitBindGroup(b.provider, b.pipeline.Bindings(), map[int]uint64{ClusterSetBinding: size}); err != nil {
		return nil, fmt.Errorf("cluster set buffer: %w", err)
	}
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.provider,
		Binding:  ClusterSetBinding,
		Offset:   0,
		Data:     MarshalClusterSetHeader(grid.NumClusters()),
	}})

	common.Logger().Debug("cluster binner created",
		"dim", dim, "clusters", grid.NumClusters(), "max_lights", grid.MaxLightsPerCluster(),
		"stride", grid.ClusterStride(), "bytes", size)
	return b, nil
}

// clusterLights is the host kernel of the clustering stage: one invocation per cluster.
func (b *binnerImpl) clusterLights(id common.Dim3, bindings [][]byte) {
	dim := b.grid.Dim()
	if !dim.Contains(id) {
		return
	}

	var cam camera.GPUCameraUniforms
	cam.Unmarshal(bindings[CameraBinding])
	minPoint, maxPoint := ClusterBounds(dim, cam.InvProj, cam.Near, cam.Far, id)

	lights := bindings[LightSetBinding]
	numLights := min(light.ReadNumLights(lights), light.RecordCount(lights))
	maxLights := b.grid.MaxLightsPerCluster()
	radius := b.grid.LightRadius()

	indices := make([]uint32, 0, min(numLights, maxLights))
	for i := uint32(0); i < numLights && uint32(len(indices)) < maxLights; i++ {
		center := mgl32.TransformCoordinate(light.ReadLightPosition(lights, i), cam.View)
		if SphereIntersectsAABB(center, radius, minPoint, maxPoint) {
			indices = append(indices, i)
		}
	}

	stride := b.grid.ClusterStride()
	off := clusterOffset(dim.Index(id), stride)
	writeCluster(bindings[ClusterSetBinding][off:off+stride], minPoint, maxPoint, indices)
}

func (b *binnerImpl) Grid() Grid {
	return b.grid
}

func (b *binnerImpl) Encode() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	wg := b.grid.Workgroups()
	return b.r.DispatchCompute(b.pipeline.PipelineKey(), b.provider, [3]uint32(wg))
}

func (b *binnerImpl) Dispatch() error {
	if err := b.r.BeginComputeFrame(); err != nil {
		return err
	}
	err := b.Encode()
	b.r.EndComputeFrame()
	return err
}

func (b *binnerImpl) Snapshot() ([]Cluster, error) {
	buf, err := b.r.ReadBuffer(b.provider, ClusterSetBinding)
	if err != nil {
		return nil, err
	}
	return DecodeClusterSet(buf, b.grid.MaxLightsPerCluster()), nil
}

func (b *binnerImpl) Provider() bind_group_provider.BindGroupProvider {
	return b.provider
}

func (b *binnerImpl) Release() {
	b.provider.Release()
}
