package software

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// texture is an 8-bit-per-channel image in CPU memory.
// data may alias a pixel buffer plane; stride is then the plane's bytes per row.
type texture struct {
	label  string
	width  int
	height int
	format gpu.PixelFormat
	usage  gpu.TextureUsage
	stride int
	data   []byte

	released  atomic.Bool
	onRelease func(*texture)
}

var _ gpu.Texture = &texture{}
var _ gpu.TextureReader = &texture{}

func newTexture(desc gpu.TextureDescriptor) *texture {
	bpp := desc.Format.BytesPerPixel()
	return &texture{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
		stride: desc.Width * bpp,
		data:   make([]byte, desc.Width*desc.Height*bpp),
	}
}

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
	for y := 0; y < t.height; y++ {
		copy(t.data[y*t.stride:y*t.stride+row], data[y*bytesPerRow:y*bytesPerRow+row])
	}
	return nil
}

func (t *texture) ReadPixels() ([]byte, error) {
	if t.released.Load() {
		return nil, fmt.Errorf("texture %q: %w", t.label, gpu.ErrReleased)
	}
	row := t.width * t.format.BytesPerPixel()
	out := make([]byte, row*t.height)
	for y := 0; y < t.height; y++ {
		copy(out[y*row:(y+1)*row], t.data[y*t.stride:y*t.stride+row])
	}
	return out, nil
}

func (t *texture) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	if t.onRelease != nil {
		t.onRelease(t)
	}
}

// texel returns the normalized RGBA value at (x, y). Missing channels read as 0, alpha as 1.
func (t *texture) texel(x, y int) [4]float32 {
	i := y*t.stride + x*t.format.BytesPerPixel()
	switch t.format {
	case gpu.PixelFormatR8Unorm:
		return [4]float32{unorm(t.data[i]), 0, 0, 1}
	case gpu.PixelFormatRG8Unorm:
		return [4]float32{unorm(t.data[i]), unorm(t.data[i+1]), 0, 1}
	case gpu.PixelFormatRGBA8Unorm:
		return [4]float32{unorm(t.data[i]), unorm(t.data[i+1]), unorm(t.data[i+2]), unorm(t.data[i+3])}
	case gpu.PixelFormatBGRA8Unorm:
		return [4]float32{unorm(t.data[i+2]), unorm(t.data[i+1]), unorm(t.data[i]), unorm(t.data[i+3])}
	default:
		return [4]float32{}
	}
}

// setTexel writes raw 8-bit channels in RGBA order, swizzling for BGRA.
func (t *texture) setTexel(x, y int, rgba [4]uint8) {
	i := y*t.stride + x*t.format.BytesPerPixel()
	switch t.format {
	case gpu.PixelFormatR8Unorm:
		t.data[i] = rgba[0]
	case gpu.PixelFormatRG8Unorm:
		t.data[i], t.data[i+1] = rgba[0], rgba[1]
	case gpu.PixelFormatRGBA8Unorm:
		t.data[i], t.data[i+1], t.data[i+2], t.data[i+3] = rgba[0], rgba[1], rgba[2], rgba[3]
	case gpu.PixelFormatBGRA8Unorm:
		t.data[i], t.data[i+1], t.data[i+2], t.data[i+3] = rgba[2], rgba[1], rgba[0], rgba[3]
	}
}

// byteAt returns the raw first channel at (x, y).
func (t *texture) byteAt(x, y int) uint8 {
	return t.data[y*t.stride+x*t.format.BytesPerPixel()]
}

func unorm(b uint8) float32 {
	return float32(b) / 255
}

// asTexture unwraps a gpu.Texture created by this backend. Foreign or nil textures yield nil.
func asTexture(t gpu.Texture) *texture {
	st, _ := t.(*texture)
	if st == nil || st.released.Load() {
		return nil
	}
	return st
}
