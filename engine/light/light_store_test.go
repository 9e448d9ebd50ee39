package light

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.WithWorkers(4))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func readLightSet(t *testing.T, r renderer.Renderer, s LightStore) []byte {
	t.Helper()
	buf, err := r.ReadBuffer(s.Provider(), LightSetBinding)
	require.NoError(t, err)
	return buf
}

func TestGPULight_Layout(t *testing.T) {
	var l GPULight
	assert.Equal(t, LightStride, l.Size())
	assert.Equal(t, 16, (&GPULightSetHeader{}).Size())
	assert.Equal(t, uint64(16+5000*32), LightSetSize(MaxNumLights))
	assert.Equal(t, uint64(16+32*3), LightOffset(3))

	l.Position = [3]float32{1, 2, 3}
	l.Color = [3]float32{0.1, 0.2, 0.3}
	var got GPULight
	got.Unmarshal(l.Marshal())
	assert.Equal(t, l, got)
}

func TestNewLightStore_Defaults(t *testing.T) {
	r := newTestRenderer(t)
	s, err := NewLightStore(r, WithSeed(1))
	require.NoError(t, err)

	assert.Equal(t, MaxNumLights, s.Capacity())
	assert.Equal(t, DefaultNumLights, s.ActiveCount())
	assert.Equal(t, float32(LightIntensity), s.Intensity())

	buf := readLightSet(t, r, s)
	assert.Len(t, buf, int(LightSetSize(MaxNumLights)))

	set, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultNumLights), set.NumLights)
	require.Len(t, set.Lights, MaxNumLights)
	for i, l := range set.Lights {
		require.Equal(t, [3]float32{}, l.Position, "light %d starts at the origin", i)
		require.Equal(t, [3]float32(s.Color(i)), l.Color, "light %d", i)
	}
}

func TestNewLightStore_ColorRange(t *testing.T) {
	r := newTestRenderer(t)
	const intensity = 0.5
	s, err := NewLightStore(r, WithCapacity(1000), WithActiveCount(10), WithIntensity(intensity), WithSeed(7))
	require.NoError(t, err)

	lo := float32(0.2*intensity) - 1e-6
	hi := float32(intensity) + 1e-6
	for i := range s.Capacity() {
		c := s.Color(i)
		for k := range 3 {
			require.GreaterOrEqual(t, c[k], lo, "light %d", i)
			require.LessOrEqual(t, c[k], hi, "light %d", i)
		}
		// A fully saturated ramp always has one channel at full and one at zero.
		assert.InDelta(t, intensity, max(c[0], c[1], c[2]), 1e-5)
		assert.InDelta(t, 0.2*intensity, min(c[0], c[1], c[2]), 1e-5)
	}
	assert.Equal(t, mgl32.Vec3{}, s.Color(-1))
	assert.Equal(t, mgl32.Vec3{}, s.Color(1000))
}

func TestNewLightStore_SeedIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	a, err := NewLightStore(r, WithCapacity(64), WithActiveCount(64), WithSeed(42))
	require.NoError(t, err)
	b, err := NewLightStore(r, WithCapacity(64), WithActiveCount(64), WithSeed(42))
	require.NoError(t, err)

	assert.NotEqual(t, a.Provider().Label(), b.Provider().Label())
	for i := range 64 {
		assert.Equal(t, a.Color(i), b.Color(i))
	}
}

func TestNewLightStore_InvalidConfiguration(t *testing.T) {
	r := newTestRenderer(t)
	tests := []struct {
		name string
		opts []LightStoreBuilderOption
	}{
		{"zero capacity", []LightStoreBuilderOption{WithCapacity(0)}},
		{"negative active", []LightStoreBuilderOption{WithActiveCount(-1)}},
		{"active over capacity", []LightStoreBuilderOption{WithCapacity(10), WithActiveCount(11)}},
		{"negative intensity", []LightStoreBuilderOption{WithIntensity(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLightStore(r, tt.opts...)
			assert.True(t, errors.Is(err, common.ErrInvalidConfiguration))
		})
	}
}

func TestLightStore_SetActiveCount(t *testing.T) {
	r := newTestRenderer(t)
	s, err := NewLightStore(r, WithCapacity(100), WithActiveCount(50), WithSeed(3))
	require.NoError(t, err)
	before := readLightSet(t, r, s)

	tests := []struct {
		name    string
		n       int
		wantErr bool
		want    int
	}{
		{"zero", 0, false, 0},
		{"capacity", 100, false, 100},
		{"middle", 25, false, 25},
		{"negative", -1, true, 25},
		{"over capacity", 101, true, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetActiveCount(tt.n)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidArgument))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, s.ActiveCount())

			after := readLightSet(t, r, s)
			assert.Equal(t, uint32(tt.want), ReadNumLights(after))
			// Only the 4-byte count changes.
			assert.Equal(t, before[4:], after[4:])
		})
	}
}

func TestHueToRGB(t *testing.T) {
	tests := []struct {
		h    float32
		want mgl32.Vec3
	}{
		{0, mgl32.Vec3{1, 0, 0}},
		{1.0 / 3.0, mgl32.Vec3{0, 1, 0}},
		{2.0 / 3.0, mgl32.Vec3{0, 0, 1}},
		{1, mgl32.Vec3{1, 0, 0}},
		{1.0 / 6.0, mgl32.Vec3{1, 1, 0}},
	}
	for _, tt := range tests {
		got := HueToRGB(tt.h)
		assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-5), "h=%v got %v", tt.h, got)
	}
}
