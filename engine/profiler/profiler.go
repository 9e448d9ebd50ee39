package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-clusters/common"
)

// ScopeStats summarizes the timings of one named scope since the last report.
type ScopeStats struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration of the scope, or zero if it never ran.
func (s ScopeStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler tracks frame rate, memory statistics and named scope timings for performance
// monitoring. Outputs stats to the common logger at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	open   map[string]time.Time
	scopes map[string]*ScopeStats

	now func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
		open:           make(map[string]time.Time),
		scopes:         make(map[string]*ScopeStats),
		now:            time.Now,
	}
}

// SetUpdateInterval changes how often Tick reports. Non-positive values are ignored.
func (p *Profiler) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// BeginScope starts timing the named scope. A scope that is already open restarts.
//
// Parameters:
//   - name: the scope name, e.g. "move_lights"
func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open[name] = p.now()
}

// EndScope stops timing the named scope and accumulates its duration. Ending a scope that
// was never begun does nothing.
//
// Parameters:
//   - name: the scope name
//
// Returns:
//   - time.Duration: the measured duration, or zero if the scope was not open
func (p *Profiler) EndScope(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	start, ok := p.open[name]
	if !ok {
		return 0
	}
	delete(p.open, name)
	d := p.now().Sub(start)

	s, ok := p.scopes[name]
	if !ok {
		s = &ScopeStats{Name: name}
		p.scopes[name] = s
	}
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	return d
}

// Scopes returns the scope statistics accumulated since the last report, sorted by name.
func (p *Profiler) Scopes() []ScopeStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopesLocked()
}

func (p *Profiler) scopesLocked() []ScopeStats {
	out := make([]ScopeStats, 0, len(p.scopes))
	for _, s := range p.scopes {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the mean/max duration of every scope, which are then reset.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	logger := common.Logger()
	logger.Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)
	for _, s := range p.scopesLocked() {
		logger.Info("profiler scope", "scope", s.Name, "count", s.Count, "mean", s.Mean(), "max", s.Max)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.scopes)
	return true
}
