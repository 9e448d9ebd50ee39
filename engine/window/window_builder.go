package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height.
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}
