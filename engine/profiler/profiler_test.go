package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func withClock(p *Profiler, c *fakeClock) *Profiler {
	p.now = c.now
	p.lastTime = c.t
	return p
}

func TestProfiler_Scopes(t *testing.T) {
	clock := newFakeClock()
	p := withClock(NewProfiler(), clock)

	p.BeginScope("move_lights")
	clock.advance(2 * time.Millisecond)
	assert.Equal(t, 2*time.Millisecond, p.EndScope("move_lights"))

	p.BeginScope("cluster_lights")
	clock.advance(5 * time.Millisecond)
	p.EndScope("cluster_lights")

	p.BeginScope("move_lights")
	clock.advance(4 * time.Millisecond)
	p.EndScope("move_lights")

	scopes := p.Scopes()
	require.Len(t, scopes, 2)
	assert.Equal(t, ScopeStats{Name: "cluster_lights", Count: 1, Total: 5 * time.Millisecond, Max: 5 * time.Millisecond}, scopes[0])
	assert.Equal(t, ScopeStats{Name: "move_lights", Count: 2, Total: 6 * time.Millisecond, Max: 4 * time.Millisecond}, scopes[1])
	assert.Equal(t, 3*time.Millisecond, scopes[1].Mean())
}

func TestProfiler_EndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	assert.Zero(t, p.EndScope("never"))
	assert.Empty(t, p.Scopes())
	assert.Zero(t, ScopeStats{}.Mean())
}

func TestProfiler_Tick(t *testing.T) {
	clock := newFakeClock()
	p := withClock(NewProfiler(), clock)
	p.SetUpdateInterval(100 * time.Millisecond)
	p.SetUpdateInterval(0) // ignored

	p.BeginScope("move_lights")
	clock.advance(time.Millisecond)
	p.EndScope("move_lights")

	clock.advance(50 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Len(t, p.Scopes(), 1)

	clock.advance(50 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Empty(t, p.Scopes(), "scopes reset after a report")
	assert.False(t, p.Tick())
}
