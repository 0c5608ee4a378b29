package webgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// surfaceFormat is the swapchain format; it matches the composite pipeline's color format.
const surfaceFormat = wgpu.TextureFormatBGRA8Unorm

// SurfaceView presents into the device's window surface.
// The surface hands out one texture at a time, so acquiring the next drawable waits until the
// previously presented one was shown.
type SurfaceView struct {
	mu     *sync.Mutex
	device *device

	size           common.Size
	clearColor     gpu.ClearColor
	acquireTimeout time.Duration

	current  *drawable
	pending  *drawable
	presents uint64
}

var _ gpu.View = &SurfaceView{}

// NewSurfaceView configures the device's surface at the given size.
//
// Parameters:
//   - dev: a device created with WithSurfaceDescriptor
//   - size: the drawable size in pixels
//   - options: functional options for the view
//
// Returns:
//   - *SurfaceView: the view
//   - error: error if the device has no surface, the surface cannot present BGRA8, or size is empty
func NewSurfaceView(dev gpu.Device, size common.Size, options ...SurfaceViewBuilderOption) (*SurfaceView, error) {
	d, ok := dev.(*device)
	if !ok || d.surface == nil {
		return nil, errors.New("surface view: device has no surface")
	}
	v := &SurfaceView{
		mu:             &sync.Mutex{},
		device:         d,
		clearColor:     gpu.ClearColor{A: 1},
		acquireTimeout: time.Second,
	}
	for _, opt := range options {
		opt(v)
	}

	supported := false
	for _, f := range d.surface.GetCapabilities(d.adapter).Formats {
		if f == surfaceFormat {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("surface view: bgra8unorm: %w", gpu.ErrUnsupportedFormat)
	}
	if err := v.Resize(size); err != nil {
		return nil, err
	}
	return v, nil
}

// Resize reconfigures the surface. It waits for a pending presentation and drops an unpresented drawable.
//
// Parameters:
//   - size: the new drawable size
//
// Returns:
//   - error: ErrInvalidSize if size is empty
func (v *SurfaceView) Resize(size common.Size) error {
	if size.Empty() {
		return fmt.Errorf("surface view %dx%d: %w", size.Width, size.Height, gpu.ErrInvalidSize)
	}
	v.waitPending()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current != nil {
		v.current.discard()
		v.current = nil
	}
	d := v.device
	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      surfaceFormat,
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	v.size = size
	return nil
}

func (v *SurfaceView) CurrentDrawable() gpu.Drawable {
	d := v.acquire()
	if d == nil {
		return nil
	}
	return d
}

func (v *SurfaceView) CurrentRenderPassDescriptor() *gpu.RenderPassDescriptor {
	d := v.acquire()
	if d == nil {
		return nil
	}
	return &gpu.RenderPassDescriptor{
		ColorTexture: d.texture,
		LoadAction:   gpu.LoadActionClear,
		ClearColor:   v.clearColor,
	}
}

func (v *SurfaceView) DrawableSize() common.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Presents returns how many drawables were presented.
func (v *SurfaceView) Presents() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presents
}

// waitPending blocks until the last presented drawable was shown or the acquire timeout passed.
// It reports whether the surface is free.
func (v *SurfaceView) waitPending() bool {
	v.mu.Lock()
	pending := v.pending
	v.mu.Unlock()
	if pending == nil {
		return true
	}
	select {
	case <-pending.done:
		return true
	case <-time.After(v.acquireTimeout):
		return false
	}
}

// acquire returns the drawable for the current frame, taking the next surface texture when the previous one was presented.
func (v *SurfaceView) acquire() *drawable {
	v.mu.Lock()
	if v.current != nil {
		d := v.current
		v.mu.Unlock()
		return d
	}
	v.mu.Unlock()

	if !v.waitPending() {
		common.Logger().Debug("surface texture still in flight", "timeout", v.acquireTimeout)
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current != nil {
		return v.current
	}
	surfaceTexture, err := v.device.surface.GetCurrentTexture()
	if err != nil {
		common.Logger().Debug("failed to acquire surface texture", "error", err)
		return nil
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		common.Logger().Debug("failed to create surface texture view", "error", err)
		return nil
	}
	v.current = &drawable{
		view: v,
		texture: &texture{
			device: v.device,
			label:  "drawable",
			width:  v.size.Width,
			height: v.size.Height,
			format: gpu.PixelFormatBGRA8Unorm,
			usage:  gpu.TextureUsageRenderTarget,
			handle: surfaceTexture,
			view:   view,
		},
		done: make(chan struct{}),
	}
	v.pending = nil
	return v.current
}

// detach ends the frame that owns d. d is shown once its command buffer is submitted.
func (v *SurfaceView) detach(d *drawable) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == d {
		v.current = nil
	}
	v.pending = d
}

func (v *SurfaceView) presented() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presents++
}

type drawable struct {
	view    *SurfaceView
	texture *texture
	done    chan struct{}
	once    sync.Once
}

var _ gpu.Drawable = &drawable{}

func (d *drawable) Texture() gpu.Texture {
	return d.texture
}

// Present shows the drawable now, outside of any command buffer.
func (d *drawable) Present() {
	d.view.detach(d)
	d.present()
}

func (d *drawable) present() {
	d.once.Do(func() {
		d.view.device.surface.Present()
		d.texture.destroy()
		d.view.presented()
		close(d.done)
	})
}

// discard gives the surface texture back without showing it.
func (d *drawable) discard() {
	d.once.Do(func() {
		d.texture.destroy()
		close(d.done)
	})
}
