package webgpu

import (
	"time"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// SurfaceViewBuilderOption is a functional option for configuring a SurfaceView.
type SurfaceViewBuilderOption func(v *SurfaceView)

// WithClearColor sets the color each frame's pass is cleared to. Defaults to opaque black.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - SurfaceViewBuilderOption: option function to apply
func WithClearColor(c gpu.ClearColor) SurfaceViewBuilderOption {
	return func(v *SurfaceView) {
		v.clearColor = c
	}
}

// WithAcquireTimeout bounds how long acquiring a drawable waits for the previous presentation.
// When it passes, the frame gets no drawable.
//
// Parameters:
//   - timeout: the wait bound
//
// Returns:
//   - SurfaceViewBuilderOption: option function to apply
func WithAcquireTimeout(timeout time.Duration) SurfaceViewBuilderOption {
	return func(v *SurfaceView) {
		v.acquireTimeout = timeout
	}
}
