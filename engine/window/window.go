package window

import (
	"runtime"
	"sync"
)

// Window is the demo host window. It only pumps input events and reports its size; the
// lighting stages run on the compute queue and never present to it.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common.Key*)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetTitle replaces the title bar text. Safe to call from any goroutine; the change is
	// applied on the next message loop iteration.
	SetTitle(title string)

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// RequestClose asks the message loop to exit at its next iteration. Safe from any goroutine.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never opened
	Close() error

	// ProcessMessages runs the window message loop on the calling (main) goroutine.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int

	// Aspect returns Width/Height, or 1 for a zero-height framebuffer.
	Aspect() float32
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu *sync.Mutex

	title  string
	width  int
	height int

	// pendingTitle is set by SetTitle and applied by the message loop.
	pendingTitle *string

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a new Window with the specified options.
// Must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		mu:     &sync.Mutex{},
		title:  "oxy-clusters",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingTitle = &title
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		w.mu.Lock()
		title := w.pendingTitle
		w.pendingTitle = nil
		w.mu.Unlock()
		if title != nil {
			platformSetTitle(w, *title)
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

func (w *engineWindow) Aspect() float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.height == 0 {
		return 1
	}
	return float32(w.width) / float32(w.height)
}
