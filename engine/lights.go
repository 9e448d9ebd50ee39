package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/engine/camera"
	"github.com/Carmen-Shannon/oxy-clusters/engine/cluster"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/profiler"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
)

const (
	// ScopeMoveLights is the profiler scope of the animation stage.
	ScopeMoveLights = "move_lights"

	// ScopeClusterLights is the profiler scope of the clustering stage.
	ScopeClusterLights = "cluster_lights"
)

// Lights owns the light store, the animator, the cluster grid and the binner, and sequences
// them once per frame. The animator always runs before the binner, so the cluster set never
// describes positions older than the current frame.
type Lights struct {
	mu *sync.Mutex
	r  renderer.Renderer

	cam      camera.Camera
	store    light.LightStore
	animator light.Animator
	grid     cluster.Grid
	binner   cluster.Binner
	profiler *profiler.Profiler

	storeOptions    []light.LightStoreBuilderOption
	animatorOptions []light.AnimatorBuilderOption
	gridOptions     []cluster.GridBuilderOption
	binnerOptions   []cluster.BinnerBuilderOption
}

// NewLights builds the whole clustered lighting system on r.
//
// Parameters:
//   - r: the renderer
//   - cam: the camera the clusters are built for
//   - options: functional options to configure the system
//
// Returns:
//   - *Lights: the system, ready for Frame
//   - error: configuration or device errors from any component
func NewLights(r renderer.Renderer, cam camera.Camera, options ...LightsBuilderOption) (*Lights, error) {
	l := &Lights{
		mu:       &sync.Mutex{},
		r:        r,
		cam:      cam,
		profiler: profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(l)
	}

	var err error
	if l.grid, err = cluster.NewGrid(l.gridOptions...); err != nil {
		return nil, err
	}
	if l.store, err = light.NewLightStore(r, l.storeOptions...); err != nil {
		return nil, err
	}
	if l.animator, err = light.NewAnimator(r, l.store, l.animatorOptions...); err != nil {
		l.store.Release()
		return nil, fmt.Errorf("light animator: %w", err)
	}
	if l.binner, err = cluster.NewBinner(r, l.grid, l.store, cam, l.binnerOptions...); err != nil {
		l.animator.Release()
		l.store.Release()
		return nil, fmt.Errorf("cluster binner: %w", err)
	}
	return l, nil
}

// OnFrame animates the lights for time t in a submission of its own.
//
// Parameters:
//   - t: elapsed time in seconds
//
// Returns:
//   - error: renderer errors
func (l *Lights) OnFrame(t float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.profiler.BeginScope(ScopeMoveLights)
	defer l.profiler.EndScope(ScopeMoveLights)
	return l.animator.Dispatch(t)
}

// DoLightClustering uploads the current camera and rebuilds the cluster set in a submission
// of its own.
//
// Returns:
//   - error: renderer errors
func (l *Lights) DoLightClustering() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.profiler.BeginScope(ScopeClusterLights)
	defer l.profiler.EndScope(ScopeClusterLights)
	l.cam.Flush(l.r)
	return l.binner.Dispatch()
}

// Frame runs OnFrame then DoLightClustering.
//
// Parameters:
//   - t: elapsed time in seconds
//
// Returns:
//   - error: the first stage error
func (l *Lights) Frame(t float32) error {
	if err := l.OnFrame(t); err != nil {
		return err
	}
	return l.DoLightClustering()
}

// Encode records both stages, animator first, into the renderer's already open compute frame.
// The camera upload is queued before the frame is submitted.
//
// Parameters:
//   - t: elapsed time in seconds
//
// Returns:
//   - error: renderer.ErrNoComputeFrame if no frame is open
func (l *Lights) Encode(t float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cam.Flush(l.r)
	if err := l.animator.Encode(t); err != nil {
		return err
	}
	return l.binner.Encode()
}

// SetNumLights changes the number of active lights. See light.LightStore.SetActiveCount.
func (l *Lights) SetNumLights(n int) error {
	return l.store.SetActiveCount(n)
}

// NumLights returns the number of active lights.
func (l *Lights) NumLights() int {
	return l.store.ActiveCount()
}

// Camera returns the camera the clusters are built for.
func (l *Lights) Camera() camera.Camera {
	return l.cam
}

// Store returns the light store.
func (l *Lights) Store() light.LightStore {
	return l.store
}

// Animator returns the light animator.
func (l *Lights) Animator() light.Animator {
	return l.animator
}

// Grid returns the cluster grid.
func (l *Lights) Grid() cluster.Grid {
	return l.grid
}

// Binner returns the cluster binner.
func (l *Lights) Binner() cluster.Binner {
	return l.binner
}

// Profiler returns the profiler collecting the stage scopes.
func (l *Lights) Profiler() *profiler.Profiler {
	return l.profiler
}

// Release frees every buffer owned by the system. The camera and renderer stay alive.
func (l *Lights) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.binner.Release()
	l.animator.Release()
	l.store.Release()
}
