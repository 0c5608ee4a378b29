package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/profiler"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/Carmen-Shannon/oxy-halo/engine/snapshot"
	"github.com/Carmen-Shannon/oxy-halo/engine/window"
)

// resizableView is a view whose drawables follow the window size.
type resizableView interface {
	Resize(size common.Size) error
}

// presentedReader is a view that keeps a CPU copy of the last presented image in BGRA.
type presentedReader interface {
	LastPresented() ([]byte, common.Size)
}

// engine implements the Engine interface.
// Coordinates the render goroutine, the frame source and the window thread.
type engine struct {
	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer
	view     gpu.View
	source   session.Source

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // 0 = until quit
	frames           atomic.Uint64
	paused           atomic.Bool

	// pendingResize is written by the window thread and applied by the render goroutine
	pendingResize atomic.Pointer[common.Size]

	snapshots         *snapshot.Writer
	snapshotRequested atomic.Bool

	errMu *sync.Mutex
	err   error
}

// Engine drives the renderer once per display tick.
// With a window it renders until the window closes; without one it renders a fixed number of
// frames and writes snapshots.
type Engine interface {
	// Window returns the host window, nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the driven renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// EnableProfiler enables periodic statistics logging.
	EnableProfiler()

	// DisableProfiler disables periodic statistics logging.
	DisableProfiler()

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetPaused stops or resumes rendering. The frame source keeps running.
	//
	// Parameters:
	//   - paused: true to pause
	SetPaused(paused bool)

	// RequestSnapshot asks the render goroutine to write snapshots after the next frame.
	// Ignored when no snapshot writer is configured.
	RequestSnapshot()

	// Frames returns the number of frames rendered so far.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Run starts the frame source and the render loop. With a window it must be called from
	// the main thread and blocks until the window closes.
	//
	// Returns:
	//   - error: the first source, render or snapshot error
	Run() error

	// Quit signals the render loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine around a renderer.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - r: the renderer to drive
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if r is nil, or if headless without a frame limit
func NewEngine(r renderer.Renderer, options ...EngineBuilderOption) (Engine, error) {
	if r == nil {
		return nil, errors.New("engine needs a renderer")
	}
	e := &engine{
		quitChannel: make(chan struct{}),
		renderer:    r,
		errMu:       &sync.Mutex{},
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil && e.maxFrames == 0 {
		return nil, errors.New("a headless engine needs a frame count")
	}
	e.profiler = profiler.NewProfiler(profiler.WithRendererStats(r.Stats))

	if e.window != nil {
		e.window.SetResizeCallback(func(size common.Size) {
			e.pendingResize.Store(&size)
		})
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			switch keyCode {
			case common.KeySpace:
				e.SetPaused(!e.paused.Load())
			case common.KeyS:
				e.RequestSnapshot()
			}
		})
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.window.Close()
			default:
			}
		})
	}
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine is already running")
	}
	if e.source != nil {
		if err := e.source.Start(); err != nil {
			return fmt.Errorf("failed to start frame source: %w", err)
		}
	}

	if e.window == nil {
		e.wg.Add(1)
		e.handleRender()
	} else {
		e.wg.Add(1)
		go e.handleRender()
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()

	if e.source != nil {
		if err := e.source.Stop(); err != nil {
			e.setErr(fmt.Errorf("failed to stop frame source: %w", err))
		}
	}
	common.Logger().Info("engine stopped", "frames", e.frames.Load())
	return e.firstErr()
}

// Quit signals the render goroutine to exit.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// quitContext returns a context cancelled when the engine quits.
func (e *engine) quitContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-e.quitChannel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// handleRender runs the render loop until quit or the frame limit.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.setErr(fmt.Errorf("render goroutine panicked: %v", r))
			e.signalQuit()
		}
	}()

	ctx, cancel := e.quitContext()
	defer cancel()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			e.finish(ctx)
			return
		default:
		}

		frameStart := time.Now()
		if e.paused.Load() {
			e.applyResize()
			time.Sleep(max(e.renderFrameLimit, 10*time.Millisecond))
			continue
		}

		if !e.renderOnce(ctx) {
			e.signalQuit()
			continue
		}
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled {
			e.profiler.Tick()
		}
		if e.snapshotRequested.CompareAndSwap(true, false) {
			if err := e.writeSnapshots(ctx); err != nil {
				common.Logger().Warn("snapshot failed", "error", err)
			}
		}
		if e.maxFrames > 0 && e.frames.Load() >= e.maxFrames {
			e.signalQuit()
			continue
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderOnce applies a pending resize and renders one frame. It reports whether the loop should go on.
func (e *engine) renderOnce(ctx context.Context) bool {
	e.applyResize()
	err := e.renderer.RenderFrame(ctx)
	switch {
	case err == nil:
		e.frames.Add(1)
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, renderer.ErrClosed):
		return false
	default:
		common.Logger().Error("render frame failed", "error", err)
		e.setErr(err)
		return false
	}
}

// applyResize forwards the latest window size to the view and the renderer.
func (e *engine) applyResize() {
	size := e.pendingResize.Swap(nil)
	if size == nil {
		return
	}
	if v, ok := e.view.(resizableView); ok {
		if err := v.Resize(*size); err != nil {
			common.Logger().Warn("view resize failed", "size", *size, "error", err)
			return
		}
	}
	e.renderer.Resize(*size)
}

// finish waits for outstanding frames and writes the final snapshots of a headless run.
func (e *engine) finish(ctx context.Context) {
	if e.window != nil || e.snapshots == nil {
		return
	}
	// ctx is already cancelled on quit
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.writeSnapshots(waitCtx); err != nil {
		e.setErr(err)
	}
}

// writeSnapshots waits for the GPU to go idle and writes the halos and the last composite.
// Textures the backend cannot read back are skipped.
func (e *engine) writeSnapshots(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	if err := e.renderer.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for frames: %w", err)
	}

	white, yellow := e.renderer.Halos()
	for name, tex := range map[string]gpu.Texture{"white-halo": white, "yellow-halo": yellow} {
		if tex == nil {
			continue
		}
		img, err := snapshot.FromTexture(tex)
		if errors.Is(err, snapshot.ErrNotReadable) {
			common.Logger().Debug("halo snapshot skipped", "name", name, "error", err)
			continue
		}
		if err != nil {
			return err
		}
		if _, err := e.snapshots.Write(name, img); err != nil {
			return err
		}
	}

	reader, ok := e.view.(presentedReader)
	if !ok {
		return nil
	}
	pix, size := reader.LastPresented()
	if pix == nil {
		common.Logger().Debug("nothing presented yet")
		return nil
	}
	img, err := snapshot.NewImage(gpu.PixelFormatBGRA8Unorm, size, pix)
	if err != nil {
		return err
	}
	_, err = e.snapshots.Write("composite", img)
	return err
}

func (e *engine) setErr(err error) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *engine) firstErr() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// EnableProfiler enables periodic statistics logging.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables periodic statistics logging.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetPaused(paused bool) {
	if e.paused.Swap(paused) != paused {
		common.Logger().Info("render loop paused", "paused", paused)
	}
}

func (e *engine) RequestSnapshot() {
	if e.snapshots != nil {
		e.snapshotRequested.Store(true)
	}
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}
