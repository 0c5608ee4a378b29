package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer"
)

// Profiler tracks frame rate, memory and renderer statistics.
// Outputs stats through the package logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stats         func() renderer.Stats
	lastSubmitted uint64
	lastDropped   uint64
	now           func() time.Time
}

// Report is one logged interval.
type Report struct {
	FPS          float64
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
	Renderer     renderer.Stats
	HasRenderer  bool
	SubmitRate   float64
	DroppedDelta uint64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options for the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per rendered frame.
// Logs statistics when the update interval has elapsed.
//
// Returns:
//   - *Report: the logged report, nil if the interval has not elapsed
func (p *Profiler) Tick() *Report {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return nil
	}

	report := &Report{FPS: float64(p.frameCount) / elapsed.Seconds()}

	runtime.ReadMemStats(&p.memStats)
	report.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	report.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	report.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a ring of the last 256 pauses
	gcCount := p.memStats.NumGC
	report.GCCount = gcCount
	if gcCount > 0 {
		report.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			report.MaxPauseUs = max(report.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		slog.Float64("fps", report.FPS),
		slog.Float64("heap_mb", report.HeapMB),
		slog.Float64("alloc_rate_mb", report.AllocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("gc_last_pause_us", report.LastPauseUs),
		slog.Uint64("gc_max_pause_us", report.MaxPauseUs),
		slog.Float64("sys_mb", report.SysMB),
	}
	if p.stats != nil {
		s := p.stats()
		dropped := s.NoFrame + s.NoTarget
		report.Renderer = s
		report.HasRenderer = true
		report.SubmitRate = float64(s.Submitted-p.lastSubmitted) / elapsed.Seconds()
		report.DroppedDelta = dropped - p.lastDropped
		p.lastSubmitted = s.Submitted
		p.lastDropped = dropped
		attrs = append(attrs, slog.Group("renderer",
			slog.Float64("submit_rate", report.SubmitRate),
			slog.Uint64("composited", s.Composited),
			slog.Uint64("dropped", report.DroppedDelta),
			slog.Uint64("failed", s.Failed),
			slog.Int64("in_flight", s.InFlight),
			slog.Int64("peak_in_flight", s.PeakInFlight),
			slog.Int("white_kernel", s.WhiteKernel),
			slog.Int("yellow_kernel", s.YellowKernel),
		))
	}
	common.Logger().Info("profiler", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return report
}
