package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/profiler"
	"github.com/Carmen-Shannon/oxy-clusters/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	mu      *sync.Mutex
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window
	lights *Lights

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        int           // frames to render before quitting; 0 = unlimited
	frames           int

	err error
}

// Engine drives the clustered lighting system. A fixed-rate tick loop runs input and
// camera logic; the render loop runs Lights.Frame with the elapsed time once per frame.
// With a window, the message loop runs on the calling goroutine.
type Engine interface {
	// Window returns the window, or nil when running headless.
	Window() window.Window

	// Lights returns the lighting system driven by the render loop.
	Lights() *Lights

	// Profiler returns the profiler ticked by the render loop.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each lighting frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames rendered so far.
	Frames() int

	// Run starts the loops and blocks until the window closes, the frame budget is spent or
	// Quit is called.
	//
	// Returns:
	//   - error: the lighting error that stopped the render loop, if any
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - lights: the lighting system to drive
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(lights *Lights, options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		mu:               &sync.Mutex{},
		lights:           lights,
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}
	if lights != nil {
		e.profiler = lights.Profiler()
	} else {
		e.profiler = profiler.NewProfiler()
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil && e.lights != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if height > 0 {
				e.lights.Camera().SetAspect(float32(width) / float32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Lights() *Lights {
	return e.lights
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Run() error {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit and asks the window
// loop to stop. Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each iteration animates and clusters the lights for the time elapsed since the loop
// started. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	start := time.Now()
	lastRender := start

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if e.lights != nil {
			if err := e.lights.Frame(float32(now.Sub(start).Seconds())); err != nil {
				common.Logger().Error("lighting frame failed", "error", err)
				e.mu.Lock()
				e.err = err
				e.mu.Unlock()
				e.signalQuit()
				return
			}
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick()
		}

		e.mu.Lock()
		e.frames++
		done := e.maxFrames > 0 && e.frames >= e.maxFrames
		e.mu.Unlock()
		if done {
			e.signalQuit()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			elapsed := time.Since(lastRender)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		e.engineTickRate = newRate
		return
	}

	// Non-blocking send: replace a pending update if there is one.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
