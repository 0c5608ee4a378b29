package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/matte"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
)

// DefaultMaxFramesInFlight is the default in-flight command buffer budget.
const DefaultMaxFramesInFlight = 3

// ErrClosed is returned by RenderFrame after Close.
var ErrClosed = errors.New("renderer: closed")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	// mu guards the viewport fields, which Resize writes from the window goroutine
	mu *sync.Mutex

	device  gpu.Device
	queue   gpu.CommandQueue
	session session.Session
	matte   matte.Generator
	view    gpu.View

	textureCache *textureCache
	plane        *imagePlane
	halo         *haloStage
	blur         *blurStage
	composite    *compositeStage
	budget       *budget

	clock atomic.Uint64
	stats *stats

	viewportSize common.Size
	sizeChanged  bool
	// appliedSize is the viewport the current texcoords were computed for
	appliedSize common.Size

	maxFramesInFlight int
	whiteScale        float64
	yellowScale       float64
	orientation       common.Orientation

	closeOnce *sync.Once
	closed    atomic.Bool
}

// Renderer composites the camera feed with a glowing halo around the segmented subject.
//
// RenderFrame is called by a single render goroutine once per display tick. Resize may be
// called from any goroutine. Command buffers execute asynchronously; at most the configured
// number of them are outstanding, and RenderFrame blocks until a slot frees up.
type Renderer interface {
	// Resize records a new viewport size. Texture coordinates are recomputed once, on the
	// next frame that has camera planes, for the last size recorded.
	//
	// Parameters:
	//   - size: the new drawable size in pixels, empty sizes are ignored
	Resize(size common.Size)

	// RenderFrame encodes and commits one frame: plane textures, halo conversion, blur,
	// composite and present. Missing inputs skip the affected stages without an error.
	//
	// Parameters:
	//   - ctx: bounds the wait for an in-flight slot
	//
	// Returns:
	//   - error: ctx.Err() if the wait was cancelled, ErrClosed after Close, or a command buffer creation error
	RenderFrame(ctx context.Context) error

	// Stats returns a snapshot of the frame counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Wait blocks until every committed command buffer has completed.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() if the wait was cancelled
	Wait(ctx context.Context) error

	// Halos returns the current white and yellow halo textures, nil before the first matte.
	// They are replaced when the matte size changes; read them after Wait and before the next RenderFrame.
	//
	// Returns:
	//   - white: the inner halo
	//   - yellow: the outer halo
	Halos() (white, yellow gpu.Texture)

	// Close waits for outstanding command buffers and releases the renderer's resources.
	// The device, session, matte generator and view are not released.
	//
	// Returns:
	//   - error: error if waiting for outstanding work failed
	Close() error
}

var _ Renderer = &renderer{}

// NewRenderer builds the composite and matte pipelines, the texture cache and the image plane buffer.
// Any failure here is fatal for the renderer.
//
// Parameters:
//   - device: the GPU device
//   - sess: the source of camera frames
//   - gen: the segmentation matte generator
//   - view: the render target
//   - opts: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: error if a pipeline, the command queue or a resource could not be created
func NewRenderer(device gpu.Device, sess session.Session, gen matte.Generator, view gpu.View, opts ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:                &sync.Mutex{},
		device:            device,
		session:           sess,
		matte:             gen,
		view:              view,
		stats:             &stats{},
		maxFramesInFlight: DefaultMaxFramesInFlight,
		orientation:       common.OrientationPortrait,
		closeOnce:         &sync.Once{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.whiteScale = common.Coalesce(r.whiteScale, DefaultWhiteScale)
	r.yellowScale = common.Coalesce(r.yellowScale, DefaultYellowScale)
	if r.maxFramesInFlight < 1 {
		return nil, fmt.Errorf("max frames in flight must be at least 1, got %d", r.maxFramesInFlight)
	}
	if device == nil || sess == nil || gen == nil || view == nil {
		return nil, errors.New("renderer needs a device, session, matte generator and view")
	}
	r.budget = newBudget(r.maxFramesInFlight)
	r.blur = &blurStage{device: device, whiteScale: r.whiteScale, yellowScale: r.yellowScale}

	var err error
	defer func() {
		if err != nil {
			r.releaseResources()
		}
	}()
	if r.queue, err = device.NewCommandQueue(); err != nil {
		return nil, fmt.Errorf("failed to create command queue: %w", err)
	}
	lib, err := device.DefaultLibrary()
	if err != nil {
		return nil, fmt.Errorf("failed to load shader library: %w", err)
	}
	if r.textureCache, err = newTextureCache(device); err != nil {
		return nil, err
	}
	if r.plane, err = newImagePlane(device); err != nil {
		return nil, err
	}
	if r.composite, err = newCompositeStage(device, lib, r.plane); err != nil {
		return nil, err
	}
	if r.halo, err = newHaloStage(device, lib); err != nil {
		return nil, err
	}

	r.viewportSize = view.DrawableSize()
	r.sizeChanged = !r.viewportSize.Empty()

	common.Logger().Info("renderer ready",
		"device", device.Name(),
		"max_frames_in_flight", r.maxFramesInFlight,
		"viewport", r.viewportSize,
		"orientation", r.orientation,
	)
	return r, nil
}

func (r *renderer) Resize(size common.Size) {
	if size.Empty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewportSize = size
	r.sizeChanged = true
}

// consumeResize clears the size-changed flag and returns the size to apply, if any.
func (r *renderer) consumeResize() (common.Size, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sizeChanged {
		return common.Size{}, false
	}
	r.sizeChanged = false
	if r.viewportSize == r.appliedSize {
		return common.Size{}, false
	}
	r.appliedSize = r.viewportSize
	return r.viewportSize, true
}

func (r *renderer) RenderFrame(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.budget.acquire(ctx); err != nil {
		return err
	}

	cmd, err := r.queue.CommandBuffer()
	if err != nil {
		r.budget.release()
		return fmt.Errorf("failed to create command buffer: %w", err)
	}
	res := &frameResources{}
	cmd.AddCompletedHandler(func(cb gpu.CommandBuffer) {
		res.release()
		r.budget.release()
		r.stats.completed.Add(1)
		if err := cb.Err(); err != nil {
			r.stats.failed.Add(1)
			common.Logger().Warn("command buffer failed", "label", cb.Label(), "error", err)
		}
	})
	defer func() {
		r.stats.submitted.Add(1)
		cmd.Commit()
	}()

	r.encodeFrame(cmd, res)
	return nil
}

// encodeFrame encodes every stage the current inputs allow. Each early return leaves
// the commit to RenderFrame.
func (r *renderer) encodeFrame(cmd gpu.CommandBuffer, res *frameResources) {
	frame := r.session.CurrentFrame()
	if frame == nil {
		r.stats.noFrame.Add(1)
		common.Logger().Debug("no current frame")
		return
	}
	log := common.Logger().With("trace_id", frame.TraceID, "seq", frame.Seq)

	if frame.CapturedImage.PlaneCount() < 2 {
		r.stats.noPlanes.Add(1)
		log.Debug("captured image has too few planes", "planes", frame.CapturedImage.PlaneCount())
		return
	}
	luma, err := r.textureCache.planeTexture(frame.CapturedImage, gpu.PixelFormatR8Unorm, 0)
	if err != nil {
		log.Debug("luma texture unavailable", "error", err)
	}
	chroma, err := r.textureCache.planeTexture(frame.CapturedImage, gpu.PixelFormatRG8Unorm, 1)
	if err != nil {
		log.Debug("chroma texture unavailable", "error", err)
	}
	res.retain(luma)
	res.retain(chroma)
	if luma == nil || chroma == nil {
		r.stats.noPlanes.Add(1)
	}

	if size, ok := r.consumeResize(); ok {
		r.plane.updateTexCoords(frame.DisplayTransform(r.orientation, size))
		r.stats.texCoordUpdates.Add(1)
		log.Debug("texture coordinates updated", "viewport", size)
	}

	matteTexture := r.matte.GenerateMatte(frame, cmd)
	res.retain(matteTexture)
	if matteTexture == nil {
		r.stats.noMatte.Add(1)
	} else {
		r.encodeHalo(cmd, matteTexture, res, log)
	}

	t := r.clock.Add(1)
	white, yellow := r.blur.encode(cmd, t, r.halo.white, r.halo.yellow)
	r.stats.whiteKernel.Store(int64(white))
	r.stats.yellowKernel.Store(int64(yellow))

	pass := r.view.CurrentRenderPassDescriptor()
	drawable := r.view.CurrentDrawable()
	if pass == nil || drawable == nil {
		r.stats.noTarget.Add(1)
		log.Debug("no drawable")
		return
	}
	drew, err := r.composite.encode(cmd, pass, compositeInputs{
		luma:   luma,
		chroma: chroma,
		white:  r.halo.white,
		yellow: r.halo.yellow,
		matte:  matteTexture,
	})
	if err != nil {
		log.Debug("composite skipped", "error", err)
		return
	}
	if drew {
		r.stats.composited.Add(1)
	}
	cmd.Present(drawable)
}

func (r *renderer) encodeHalo(cmd gpu.CommandBuffer, matteTexture gpu.Texture, res *frameResources, log *slog.Logger) {
	w, h := matteTexture.Width(), matteTexture.Height()
	if w == 0 || h == 0 {
		return
	}
	reallocated, err := r.halo.ensure(w, h, res)
	if err != nil {
		log.Debug("halo skipped", "error", err)
		return
	}
	if reallocated {
		r.stats.haloAllocations.Add(1)
		log.Debug("halo textures allocated", "width", w, "height", h)
	}
	if err := r.halo.encode(cmd, matteTexture); err != nil {
		log.Debug("halo skipped", "error", err)
	}
}

func (r *renderer) Stats() Stats {
	return Stats{
		Submitted:       r.stats.submitted.Load(),
		Completed:       r.stats.completed.Load(),
		Failed:          r.stats.failed.Load(),
		Composited:      r.stats.composited.Load(),
		NoFrame:         r.stats.noFrame.Load(),
		NoPlanes:        r.stats.noPlanes.Load(),
		NoMatte:         r.stats.noMatte.Load(),
		NoTarget:        r.stats.noTarget.Load(),
		HaloAllocations: r.stats.haloAllocations.Load(),
		TexCoordUpdates: r.stats.texCoordUpdates.Load(),
		Clock:           r.clock.Load(),
		WhiteKernel:     int(r.stats.whiteKernel.Load()),
		YellowKernel:    int(r.stats.yellowKernel.Load()),
		InFlight:        r.budget.inFlight.Load(),
		PeakInFlight:    r.budget.peak.Load(),
	}
}

func (r *renderer) Wait(ctx context.Context) error {
	return r.budget.drain(ctx)
}

func (r *renderer) Halos() (white, yellow gpu.Texture) {
	return r.halo.white, r.halo.yellow
}

func (r *renderer) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		if err = r.budget.drain(context.Background()); err != nil {
			return
		}
		r.releaseResources()
		common.Logger().Info("renderer closed", "frames", r.stats.submitted.Load())
	})
	return err
}

// releaseResources releases whatever setup managed to create.
func (r *renderer) releaseResources() {
	if r.halo != nil {
		r.halo.release()
	}
	if r.plane != nil {
		r.plane.release()
	}
	if r.textureCache != nil {
		r.textureCache.flush()
	}
}
