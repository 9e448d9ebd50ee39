package engine

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RunMaxFrames(t *testing.T) {
	_, l := newTestLights(t)

	var rendered atomic.Int32
	e := NewEngine(l, WithMaxFrames(5), WithProfiling(true))
	e.SetRenderCallback(func(float32) { rendered.Add(1) })

	require.NoError(t, e.Run())
	assert.Equal(t, 5, e.Frames())
	assert.Equal(t, int32(5), rendered.Load())
	assert.Nil(t, e.Window())
	assert.Same(t, l, e.Lights())
	assert.Same(t, l.Profiler(), e.Profiler())
}

func TestEngine_Quit(t *testing.T) {
	_, l := newTestLights(t)

	e := NewEngine(l, WithTickRate(240))
	e.SetRenderCallback(func(float32) {
		if e.Frames() >= 2 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.GreaterOrEqual(t, e.Frames(), 3)
	e.Quit()
}

func TestEngine_Headless(t *testing.T) {
	var ticks atomic.Int32
	e := NewEngine(nil, WithMaxFrames(3))
	e.SetTickCallback(func(float32) { ticks.Add(1) })
	e.SetRenderFrameLimit(200)

	require.NoError(t, e.Run())
	assert.Equal(t, 3, e.Frames())
	assert.NotNil(t, e.Profiler())
}
