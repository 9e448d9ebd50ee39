package light

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/move_lights.cs.wgsl
var moveLightsSource string

const (
	// MoveLightsWorkgroupSize is the number of lights animated per workgroup.
	MoveLightsWorkgroupSize = 128

	// MoveLightsPipelineKey is the renderer pipeline key of the animation stage.
	MoveLightsPipelineKey = "move_lights"

	// TimeBinding is the binding index of the time uniform on the animator's provider.
	TimeBinding = 1

	// timeUniformSize pads the f32 time uniform to a full 16-byte uniform block.
	timeUniformSize = 16
)

// MotionParams describes the deterministic light motion: every light circles a home point
// inside [BoundsMin, BoundsMax] in the XZ plane with radius OrbitRadius and angular speed
// Omega, while bobbing vertically by BobAmplitude at half that speed.
type MotionParams struct {
	BoundsMin    mgl32.Vec3
	BoundsMax    mgl32.Vec3
	OrbitRadius  float32
	BobAmplitude float32
	Omega        float32
}

// DefaultMotionParams returns the motion used when none is configured.
func DefaultMotionParams() MotionParams {
	return MotionParams{
		BoundsMin:    mgl32.Vec3{-10, 1, -5},
		BoundsMax:    mgl32.Vec3{10, 12, 5},
		OrbitRadius:  1.5,
		BobAmplitude: 0.5,
		Omega:        1.0,
	}
}

// hash32 is the lowbias32 integer hash, bit-identical to the WGSL hash.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// rand01 returns the k-th per-light random number in [0, 1].
func rand01(i, k uint32) float32 {
	return float32(hash32(i*4+k)) / 4294967295.0
}

// LightPosition returns the position of light index at time t seconds. It is a pure
// function of its inputs and matches the move_lights compute stage.
//
// Parameters:
//   - index: the light index
//   - t: elapsed time in seconds
//   - params: the motion parameters
//
// Returns:
//   - mgl32.Vec3: the world-space position
func LightPosition(index uint32, t float32, params MotionParams) mgl32.Vec3 {
	f := mgl32.Vec3{rand01(index, 0), rand01(index, 1), rand01(index, 2)}
	span := params.BoundsMax.Sub(params.BoundsMin)
	home := params.BoundsMin.Add(mgl32.Vec3{span[0] * f[0], span[1] * f[1], span[2] * f[2]})
	phase := rand01(index, 3) * 2 * math.Pi
	a := float64(params.Omega*t + phase)
	bob := float64(0.5*params.Omega*t + phase)
	return mgl32.Vec3{
		home[0] + params.OrbitRadius*float32(math.Cos(a)),
		home[1] + params.BobAmplitude*float32(math.Sin(bob)),
		home[2] + params.OrbitRadius*float32(math.Sin(a)),
	}
}

type animatorImpl struct {
	mu *sync.Mutex
	r  renderer.Renderer

	store         LightStore
	params        MotionParams
	workgroupSize int

	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider
}

// Animator rewrites the position of every active light from a time value once per frame.
// It binds the store's light set buffer read-write and never touches colors or the count.
type Animator interface {
	// Encode writes the time uniform and records the animation dispatch into the renderer's
	// open compute frame. Nothing is dispatched when no light is active.
	//
	// Parameters:
	//   - t: elapsed time in seconds
	//
	// Returns:
	//   - error: renderer errors for a missing frame
	Encode(t float32) error

	// Dispatch runs the animation stage in a compute frame of its own and submits it.
	//
	// Parameters:
	//   - t: elapsed time in seconds
	//
	// Returns:
	//   - error: an error if the frame could not be opened
	Dispatch(t float32) error

	// Params returns the motion parameters.
	Params() MotionParams

	// Provider returns the bind group provider used by the animation stage.
	Provider() bind_group_provider.BindGroupProvider

	// Release frees the time uniform buffer. The shared light set buffer stays with the store.
	Release()
}

var _ Animator = &animatorImpl{}

// NewAnimator builds and registers the move_lights compute pipeline and its bind group.
//
// Parameters:
//   - r: the renderer
//   - store: the light store whose positions are animated
//   - options: functional options to configure the animator
//
// Returns:
//   - Animator: the animator
//   - error: common.ErrInvalidConfiguration (wrapped) for a non-positive workgroup size,
//     shader or device errors otherwise
func NewAnimator(r renderer.Renderer, store LightStore, options ...AnimatorBuilderOption) (Animator, error) {
	a := &animatorImpl{
		mu:            &sync.Mutex{},
		r:             r,
		store:         store,
		params:        DefaultMotionParams(),
		workgroupSize: MoveLightsWorkgroupSize,
	}
	for _, opt := range options {
		opt(a)
	}
	if a.workgroupSize <= 0 {
		return nil, fmt.Errorf("move lights workgroup size %d: %w", a.workgroupSize, common.ErrInvalidConfiguration)
	}

	p := a.params
	cs, err := shader.NewShader(MoveLightsPipelineKey, moveLightsSource, map[string]string{
		"boundsMinX":              shader.F32(p.BoundsMin[0]),
		"boundsMinY":              shader.F32(p.BoundsMin[1]),
		"boundsMinZ":              shader.F32(p.BoundsMin[2]),
		"boundsMaxX":              shader.F32(p.BoundsMax[0]),
		"boundsMaxY":              shader.F32(p.BoundsMax[1]),
		"boundsMaxZ":              shader.F32(p.BoundsMax[2]),
		"orbitRadius":             shader.F32(p.OrbitRadius),
		"bobAmplitude":            shader.F32(p.BobAmplitude),
		"omega":                   shader.F32(p.Omega),
		"moveLightsWorkgroupSize": strconv.Itoa(a.workgroupSize),
	})
	if err != nil {
		return nil, err
	}

	key := MoveLightsPipelineKey
	if r.Pipeline(key) != nil {
		key = fmt.Sprintf("%s_%s", MoveLightsPipelineKey, store.Provider().Label())
	}
	a.pipeline = pipeline.NewPipeline(key,
		pipeline.WithComputeShader(cs),
		pipeline.WithHostKernel(a.moveLight),
	)
	if err := r.RegisterPipelines(a.pipeline); err != nil {
		return nil, err
	}

	a.provider = bind_group_provider.NewBindGroupProvider(key,
		bind_group_provider.WithSharedBuffer(LightSetBinding, store.Provider().Buffer(LightSetBinding)),
	)
	if err := r.InitBindGroup(a.provider, a.pipeline.Bindings(), map[int]uint64{TimeBinding: timeUniformSize}); err != nil {
		return nil, fmt.Errorf("move lights bind group: %w", err)
	}
	return a, nil
}

// moveLight is the host kernel of the move_lights stage: one invocation per light.
func (a *animatorImpl) moveLight(id common.Dim3, bindings [][]byte) {
	set := bindings[LightSetBinding]
	i := id[0]
	if i >= ReadNumLights(set) || i >= RecordCount(set) {
		return
	}
	t := math.Float32frombits(binary.LittleEndian.Uint32(bindings[TimeBinding]))
	WriteLightPosition(set, i, LightPosition(i, t, a.params))
}

func (a *animatorImpl) Encode(t float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	timeBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(timeBytes, math.Float32bits(t))
	a.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: a.provider,
		Binding:  TimeBinding,
		Offset:   0,
		Data:     timeBytes,
	}})

	n := a.store.ActiveCount()
	if n == 0 {
		return nil
	}
	groups := common.CeilDiv(uint32(n), uint32(a.workgroupSize))
	return a.r.DispatchCompute(a.pipeline.PipelineKey(), a.provider, [3]uint32{groups, 1, 1})
}

func (a *animatorImpl) Dispatch(t float32) error {
	if err := a.r.BeginComputeFrame(); err != nil {
		return err
	}
	err := a.Encode(t)
	a.r.EndComputeFrame()
	return err
}

func (a *animatorImpl) Params() MotionParams {
	return a.params
}

func (a *animatorImpl) Provider() bind_group_provider.BindGroupProvider {
	return a.provider
}

func (a *animatorImpl) Release() {
	a.provider.Release()
}
