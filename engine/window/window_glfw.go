package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// No client API: nothing is ever drawn through an OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}

	gw := &glfwWindow{
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		if w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	// Framebuffer size, not window size: they differ on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.mu.Lock()
		w.width = width
		w.height = height
		w.mu.Unlock()
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformSetTitle updates the GLFW title bar. Must run on the main thread.
func platformSetTitle(w *engineWindow, title string) {
	if gw, ok := w.internalWindow.(*glfwWindow); ok {
		gw.window.SetTitle(title)
	}
}

// platformIsRunningCheck returns whether the GLFW window is still active.
func platformIsRunningCheck(w *engineWindow) bool {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok {
		return false
	}
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok || !gw.running {
		return fmt.Errorf("window is not open")
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}

// platformRequestClose flags the GLFW window for closing. glfwSetWindowShouldClose may be
// called from any thread.
func platformRequestClose(w *engineWindow) {
	if gw, ok := w.internalWindow.(*glfwWindow); ok {
		gw.window.SetShouldClose(true)
	}
}
