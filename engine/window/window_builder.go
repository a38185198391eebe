package window

import "github.com/Carmen-Shannon/oxy-learn/common"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text, empty keeps the current title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = common.Coalesce(title, w.title)
	}
}

// WithWidth sets the window width. The window cannot be resized.
//
// Parameters:
//   - width: width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the window height. The window cannot be resized.
//
// Parameters:
//   - height: height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithExitKey sets the key that ends the run while held. Defaults to Escape.
//
// Parameters:
//   - keyCode: a key code from the common package
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithExitKey(keyCode int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.exitKey = keyCode
	}
}
