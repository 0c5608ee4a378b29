package software

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// OffscreenView is a swapchain of BGRA8 textures held in memory.
// The most recently presented image can be read back with LastPresented.
type OffscreenView struct {
	mu *sync.Mutex

	size       common.Size
	drawables  []*drawable
	next       int
	current    *drawable
	clearColor gpu.ClearColor

	presented   []byte
	presentSize common.Size
	presents    uint64
}

var _ gpu.View = &OffscreenView{}

// NewOffscreenView creates an offscreen view with count drawables of the given size.
//
// Parameters:
//   - size: drawable size in pixels
//   - count: number of drawables in the swapchain, at least 1
//
// Returns:
//   - *OffscreenView: the view
//   - error: ErrInvalidSize if size is empty
func NewOffscreenView(size common.Size, count int) (*OffscreenView, error) {
	v := &OffscreenView{mu: &sync.Mutex{}, clearColor: gpu.ClearColor{A: 1}}
	if err := v.resize(size, count); err != nil {
		return nil, err
	}
	return v, nil
}

// Resize reallocates the swapchain. Drawables already handed out stay valid.
//
// Parameters:
//   - size: the new drawable size
//
// Returns:
//   - error: ErrInvalidSize if size is empty
func (v *OffscreenView) Resize(size common.Size) error {
	v.mu.Lock()
	count := len(v.drawables)
	v.mu.Unlock()
	return v.resize(size, count)
}

func (v *OffscreenView) resize(size common.Size, count int) error {
	if size.Empty() {
		return fmt.Errorf("offscreen view %dx%d: %w", size.Width, size.Height, gpu.ErrInvalidSize)
	}
	drawables := make([]*drawable, max(count, 1))
	for i := range drawables {
		drawables[i] = &drawable{
			view: v,
			texture: newTexture(gpu.TextureDescriptor{
				Label:  fmt.Sprintf("drawable %d", i),
				Format: gpu.PixelFormatBGRA8Unorm,
				Width:  size.Width,
				Height: size.Height,
				Usage:  gpu.TextureUsageRenderTarget | gpu.TextureUsageShaderRead,
			}),
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
	v.drawables = drawables
	v.next = 0
	v.current = nil
	return nil
}

func (v *OffscreenView) CurrentDrawable() gpu.Drawable {
	v.mu.Lock()
	defer v.mu.Unlock()
	d := v.acquire()
	if d == nil {
		return nil
	}
	return d
}

func (v *OffscreenView) CurrentRenderPassDescriptor() *gpu.RenderPassDescriptor {
	v.mu.Lock()
	defer v.mu.Unlock()
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

// Depth returns the number of drawables in the swapchain.
func (v *OffscreenView) Depth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.drawables)
}

func (v *OffscreenView) DrawableSize() common.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// acquire returns the drawable for the current frame, rotating the swapchain when the previous one was taken.
// Caller holds v.mu.
func (v *OffscreenView) acquire() *drawable {
	if v.current != nil {
		return v.current
	}
	if len(v.drawables) == 0 {
		return nil
	}
	v.current = v.drawables[v.next]
	v.next = (v.next + 1) % len(v.drawables)
	return v.current
}

// LastPresented returns a tightly packed BGRA copy of the last presented drawable.
//
// Returns:
//   - []byte: the pixels, nil if nothing was presented yet
//   - common.Size: the image size
func (v *OffscreenView) LastPresented() ([]byte, common.Size) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.presented == nil {
		return nil, common.Size{}
	}
	out := make([]byte, len(v.presented))
	copy(out, v.presented)
	return out, v.presentSize
}

// Presents returns how many drawables were presented.
func (v *OffscreenView) Presents() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.presents
}

func (v *OffscreenView) present(d *drawable) {
	pixels, err := d.texture.ReadPixels()
	if err != nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presented = pixels
	v.presentSize = common.Size{Width: d.texture.width, Height: d.texture.height}
	v.presents++
}

// detach ends the frame that owns d so the next frame acquires a fresh drawable.
func (v *OffscreenView) detach(d *drawable) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == d {
		v.current = nil
	}
}

type drawable struct {
	view    *OffscreenView
	texture *texture
}

var _ gpu.Drawable = &drawable{}

func (d *drawable) Texture() gpu.Texture {
	return d.texture
}

func (d *drawable) Present() {
	d.view.present(d)
}
