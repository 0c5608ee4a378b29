package webgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// texture wraps a wgpu texture and its default view.
// Pooled textures go back to their pool on Release; drawable textures belong to the surface.
type texture struct {
	device *device
	label  string
	width  int
	height int
	format gpu.PixelFormat
	usage  gpu.TextureUsage

	handle *wgpu.Texture
	view   *wgpu.TextureView
	owned  bool

	released  atomic.Bool
	onRelease func(*texture)
}

var _ gpu.Texture = &texture{}

func (t *texture) Label() string {
	return t.label
}

func (t *texture) Width() int {
	return t.width
}

func (t *texture) Height() int {
	return t.height
}

func (t *texture) Format() gpu.PixelFormat {
	return t.format
}

func (t *texture) Usage() gpu.TextureUsage {
	return t.usage
}

func (t *texture) ReplaceRegion(data []byte, bytesPerRow int) error {
	if t.released.Load() {
		return fmt.Errorf("texture %q: %w", t.label, gpu.ErrReleased)
	}
	row := t.width * t.format.BytesPerPixel()
	if bytesPerRow < row || len(data) < bytesPerRow*(t.height-1)+row {
		return fmt.Errorf("texture %q replace region: %w", t.label, gpu.ErrInvalidSize)
	}
	t.write(data[:bytesPerRow*(t.height-1)+row], bytesPerRow)
	return nil
}

// write uploads rows through the queue. The copy lands before any later submission.
func (t *texture) write(data []byte, bytesPerRow int) {
	t.device.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.handle,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bytesPerRow),
			RowsPerImage: uint32(t.height),
		},
		&wgpu.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
	)
}

func (t *texture) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	if t.onRelease != nil {
		t.onRelease(t)
		return
	}
	if t.owned {
		t.destroy()
	}
}

// destroy frees the wgpu objects regardless of pooling.
func (t *texture) destroy() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.handle != nil {
		t.handle.Release()
		t.handle = nil
	}
}

// asTexture unwraps a gpu.Texture created by this backend. Foreign or nil textures yield nil.
func asTexture(t gpu.Texture) *texture {
	wt, _ := t.(*texture)
	if wt == nil || wt.released.Load() {
		return nil
	}
	return wt
}
