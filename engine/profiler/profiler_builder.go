package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-halo/engine/renderer"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithRendererStats adds renderer counters to every report.
//
// Parameters:
//   - stats: returns the current renderer counters, usually Renderer.Stats
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithRendererStats(stats func() renderer.Stats) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.stats = stats
	}
}

// WithClock replaces time.Now.
//
// Parameters:
//   - now: the time source
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
