package common

// Virtual key codes used by the demo host.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyMinus = 45  // - key (ASCII)
	KeyEqual = 61  // = / + key (ASCII)
	KeyC     = 67  // C key (ASCII)
	KeyH     = 72  // H key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
	KeyRight = 262 // right arrow (GLFW)
	KeyLeft  = 263 // left arrow (GLFW)
	KeyDown  = 264 // down arrow (GLFW)
	KeyUp    = 265 // up arrow (GLFW)

	KeyKPSubtract = 333 // keypad - (GLFW)
	KeyKPAdd      = 334 // keypad + (GLFW)
)
