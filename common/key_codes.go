package common

// Virtual key codes for the host key bindings.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyS     = 83  // S key (ASCII), writes a snapshot
	KeySpace = 32  // Spacebar (ASCII), pauses the render loop
	KeyEsc   = 256 // Escape key (GLFW), quits
)
