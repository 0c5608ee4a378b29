package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/Carmen-Shannon/oxy-halo/engine/snapshot"
	"github.com/Carmen-Shannon/oxy-halo/engine/window"
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

// WithWindow sets the host window. Window resizes are forwarded to the view and the renderer.
// Without a window the engine runs headless.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithView sets the renderer's view. Views with a Resize method follow the window size, and
// views that keep the last presented image provide the composite snapshot.
//
// Parameters:
//   - v: the view the renderer draws into
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithView(v gpu.View) EngineBuilderOption {
	return func(e *engine) {
		e.view = v
	}
}

// WithSource sets a frame source that is started by Run and stopped when it returns.
//
// Parameters:
//   - s: the frame source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSource(s session.Source) EngineBuilderOption {
	return func(e *engine) {
		e.source = s
	}
}

// WithMaxFrames stops the engine after n rendered frames. Required when headless.
//
// Parameters:
//   - n: the frame count, 0 renders until quit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithSnapshots sets the writer snapshots are stored with. Headless runs write one set at the end.
//
// Parameters:
//   - w: the snapshot writer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSnapshots(w *snapshot.Writer) EngineBuilderOption {
	return func(e *engine) {
		e.snapshots = w
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
