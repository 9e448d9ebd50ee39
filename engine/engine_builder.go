package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-clusters/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow attaches a window. Run then pumps its message loop on the calling goroutine
// and stops when it closes.
//
// Parameters:
//   - w: an opened Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrames stops the engine after n rendered frames. 0 runs until Quit or window close.
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = max(n, 0)
	}
}
