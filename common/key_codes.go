package common

import "strings"

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyQ         = 81  // Q key (ASCII)
	KeyX         = 88  // X key (ASCII)
	KeySpace     = 32  // Spacebar (ASCII)
	KeyBackspace = 259 // Backspace key (GLFW)
	KeyEsc       = 256 // Escape key (GLFW)
	KeyEnter     = 257 // Enter key (GLFW)
)

var keyNames = map[string]int{
	"escape":    KeyEsc,
	"esc":       KeyEsc,
	"q":         KeyQ,
	"x":         KeyX,
	"space":     KeySpace,
	"backspace": KeyBackspace,
	"enter":     KeyEnter,
}

// KeyByName resolves a configuration key name, case-insensitively, to its key code.
//
// Parameters:
//   - name: the key name, e.g. "escape" or "q"
//
// Returns:
//   - int: the key code
//   - bool: false if the name is unknown
func KeyByName(name string) (int, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}
