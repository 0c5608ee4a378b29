package renderer

import (
	"github.com/Carmen-Shannon/oxy-halo/common"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithMaxFramesInFlight sets how many command buffers may be outstanding at once.
// When not specified, the default is 3.
//
// Parameters:
//   - n: the in-flight budget, values < 1 are rejected by NewRenderer
//
// Returns:
//   - RendererBuilderOption: a function that applies the budget option to a renderer
func WithMaxFramesInFlight(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.maxFramesInFlight = n
	}
}

// WithWhiteScale sets the blur scale of the inner white halo.
//
// Parameters:
//   - scale: the kernel scale, default 30; zero keeps the default
//
// Returns:
//   - RendererBuilderOption: a function that applies the scale option to a renderer
func WithWhiteScale(scale float64) RendererBuilderOption {
	return func(r *renderer) {
		r.whiteScale = scale
	}
}

// WithYellowScale sets the blur scale of the outer yellow halo.
//
// Parameters:
//   - scale: the kernel scale, default 100; zero keeps the default
//
// Returns:
//   - RendererBuilderOption: a function that applies the scale option to a renderer
func WithYellowScale(scale float64) RendererBuilderOption {
	return func(r *renderer) {
		r.yellowScale = scale
	}
}

// WithOrientation sets the interface orientation texcoords are computed for.
// When not specified, the default is common.OrientationPortrait.
//
// Parameters:
//   - o: the orientation
//
// Returns:
//   - RendererBuilderOption: a function that applies the orientation option to a renderer
func WithOrientation(o common.Orientation) RendererBuilderOption {
	return func(r *renderer) {
		r.orientation = o
	}
}
