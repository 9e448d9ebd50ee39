package light

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	// MaxNumLights is the default light store capacity.
	MaxNumLights = 5000

	// DefaultNumLights is the default active light count.
	DefaultNumLights = 500

	// LightIntensity is the default scalar applied to every light color.
	LightIntensity = 0.1

	// LightSetBinding is the binding index of the light set buffer on the store's provider.
	LightSetBinding = 0
)

// ErrInvalidArgument is returned when a runtime argument is out of range. The call has no effect.
var ErrInvalidArgument = errors.New("invalid argument")

// LightSet is a host copy of the light set buffer.
type LightSet struct {
	// NumLights is the active count from the buffer header.
	NumLights uint32

	// Lights holds every record up to capacity, active or not.
	Lights []GPULight
}

type lightStoreImpl struct {
	mu *sync.Mutex
	r  renderer.Renderer

	label       string
	capacity    int
	activeCount int
	intensity   float32
	seed        uint64
	seeded      bool

	colors   []mgl32.Vec3
	provider bind_group_provider.BindGroupProvider
}

// LightStore owns a fixed-capacity set of point lights in a device buffer. Colors are assigned
// once at creation; positions start at the origin and are owned by the animator afterwards.
// Only the first ActiveCount records are considered by downstream stages.
type LightStore interface {
	// Capacity returns the number of light slots allocated.
	Capacity() int

	// ActiveCount returns the number of lights currently considered active.
	ActiveCount() int

	// Intensity returns the scalar that was applied to every color.
	Intensity() float32

	// Color returns the color assigned to light i.
	//
	// Parameters:
	//   - i: the light index in [0, Capacity)
	//
	// Returns:
	//   - mgl32.Vec3: the color, or zero for an out of range index
	Color(i int) mgl32.Vec3

	// SetActiveCount changes how many lights are active. Exactly the 4-byte count at the start of
	// the device buffer is rewritten; positions and colors are untouched.
	//
	// Parameters:
	//   - n: the new active count
	//
	// Returns:
	//   - error: ErrInvalidArgument (wrapped) if n < 0 or n > Capacity; nothing is written then
	SetActiveCount(n int) error

	// Provider returns the bind group provider holding the light set buffer at LightSetBinding.
	// The shading side binds the same buffer.
	Provider() bind_group_provider.BindGroupProvider

	// Snapshot reads the device buffer back to the host.
	//
	// Returns:
	//   - LightSet: the decoded buffer
	//   - error: renderer.ErrReadbackUnsupported on backends without readback
	Snapshot() (LightSet, error)

	// Release frees the device buffer.
	Release()
}

var _ LightStore = &lightStoreImpl{}

// NewLightStore allocates the light set buffer on r, assigns every slot a random hue and
// uploads the initial contents.
//
// Parameters:
//   - r: the renderer owning the buffer
//   - options: functional options to configure the store
//
// Returns:
//   - LightStore: the initialized store
//   - error: common.ErrInvalidConfiguration (wrapped) for a non-positive capacity, a negative
//     intensity or an active count outside [0, capacity]; device errors otherwise
func NewLightStore(r renderer.Renderer, options ...LightStoreBuilderOption) (LightStore, error) {
	s := &lightStoreImpl{
		mu:          &sync.Mutex{},
		r:           r,
		label:       "light_store",
		capacity:    MaxNumLights,
		activeCount: DefaultNumLights,
		intensity:   LightIntensity,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.capacity <= 0 {
		return nil, fmt.Errorf("light capacity %d: %w", s.capacity, common.ErrInvalidConfiguration)
	}
	if s.activeCount < 0 || s.activeCount > s.capacity {
		return nil, fmt.Errorf("active light count %d outside [0, %d]: %w", s.activeCount, s.capacity, common.ErrInvalidConfiguration)
	}
	if s.intensity < 0 {
		return nil, fmt.Errorf("light intensity %v: %w", s.intensity, common.ErrInvalidConfiguration)
	}

	if !s.seeded {
		s.seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	lights := make([]GPULight, s.capacity)
	s.colors = make([]mgl32.Vec3, s.capacity)
	for i := range lights {
		c := lightColor(rng.Float32(), s.intensity)
		s.colors[i] = c
		lights[i].Color = c
	}

	s.provider = bind_group_provider.NewBindGroupProvider(s.label + "_" + uuid.NewString()[:8])
	layout := []shader.BindingLayout{
		{Binding: LightSetBinding, Type: shader.BindingTypeStorage, VarName: "lightSet", TypeName: "LightSet"},
	}
	size := LightSetSize(uint32(s.capacity))
	if err := r.InitBindGroup(s.provider, layout, map[int]uint64{LightSetBinding: size}); err != nil {
		return nil, fmt.Errorf("light set buffer: %w", err)
	}
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.provider,
		Binding:  LightSetBinding,
		Offset:   0,
		Data:     MarshalLightSet(uint32(s.activeCount), lights),
	}})

	common.Logger().Debug("light store created", "capacity", s.capacity, "active", s.activeCount, "bytes", size, "seed", s.seed)
	return s, nil
}

func (s *lightStoreImpl) Capacity() int {
	return s.capacity
}

func (s *lightStoreImpl) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCount
}

func (s *lightStoreImpl) Intensity() float32 {
	return s.intensity
}

func (s *lightStoreImpl) Color(i int) mgl32.Vec3 {
	if i < 0 || i >= len(s.colors) {
		return mgl32.Vec3{}
	}
	return s.colors[i]
}

func (s *lightStoreImpl) SetActiveCount(n int) error {
	if n < 0 || n > s.capacity {
		return fmt.Errorf("active light count %d outside [0, %d]: %w", n, s.capacity, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCount = n

	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, uint32(n))
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.provider,
		Binding:  LightSetBinding,
		Offset:   0,
		Data:     count,
	}})
	return nil
}

func (s *lightStoreImpl) Provider() bind_group_provider.BindGroupProvider {
	return s.provider
}

func (s *lightStoreImpl) Snapshot() (LightSet, error) {
	buf, err := s.r.ReadBuffer(s.provider, LightSetBinding)
	if err != nil {
		return LightSet{}, err
	}
	set := LightSet{
		NumLights: ReadNumLights(buf),
		Lights:    make([]GPULight, RecordCount(buf)),
	}
	for i := range set.Lights {
		set.Lights[i].Unmarshal(buf[LightOffset(uint32(i)):])
	}
	return set, nil
}

func (s *lightStoreImpl) Release() {
	s.provider.Release()
}
