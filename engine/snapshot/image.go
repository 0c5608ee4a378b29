package snapshot

import (
	"errors"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/mrjoshuak/go-openexr/exr"
)

// ErrNotReadable is returned for textures whose backend cannot read them back.
var ErrNotReadable = errors.New("snapshot: texture is not readable")

// Image is a tightly packed 8-bit image read back from a texture or a presented drawable.
type Image struct {
	Format gpu.PixelFormat
	Size   common.Size
	Pix    []byte
}

// NewImage wraps pix after checking it covers size in format.
//
// Parameters:
//   - format: the texel format
//   - size: the image size
//   - pix: width*height*bytesPerPixel bytes
//
// Returns:
//   - *Image: the image
//   - error: ErrInvalidSize for an empty size or short data, ErrUnsupportedFormat for an invalid format
func NewImage(format gpu.PixelFormat, size common.Size, pix []byte) (*Image, error) {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("snapshot %s: %w", format, gpu.ErrUnsupportedFormat)
	}
	if size.Empty() || len(pix) < size.Width*size.Height*bpp {
		return nil, fmt.Errorf("snapshot %dx%d with %d bytes: %w", size.Width, size.Height, len(pix), gpu.ErrInvalidSize)
	}
	return &Image{Format: format, Size: size, Pix: pix}, nil
}

// FromTexture reads tex back into an Image.
//
// Parameters:
//   - tex: a texture implementing gpu.TextureReader
//
// Returns:
//   - *Image: the texture contents
//   - error: ErrNotReadable if the backend cannot read tex, or the read error
func FromTexture(tex gpu.Texture) (*Image, error) {
	if tex == nil {
		return nil, fmt.Errorf("snapshot: nil texture: %w", ErrNotReadable)
	}
	reader, ok := tex.(gpu.TextureReader)
	if !ok {
		return nil, fmt.Errorf("snapshot %q: %w", tex.Label(), ErrNotReadable)
	}
	pix, err := reader.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", tex.Label(), err)
	}
	return NewImage(tex.Format(), common.Size{Width: tex.Width(), Height: tex.Height()}, pix)
}

// texel returns the 8-bit RGBA components at (x, y). Single channel images are gray,
// two channel images put the second channel in green.
func (img *Image) texel(x, y int) (r, g, b, a uint8) {
	bpp := img.Format.BytesPerPixel()
	p := img.Pix[(y*img.Size.Width+x)*bpp:]
	switch img.Format {
	case gpu.PixelFormatR8Unorm:
		return p[0], p[0], p[0], 255
	case gpu.PixelFormatRG8Unorm:
		return p[0], p[1], 0, 255
	case gpu.PixelFormatBGRA8Unorm:
		return p[2], p[1], p[0], p[3]
	default:
		return p[0], p[1], p[2], p[3]
	}
}

// NRGBA converts the image for 8-bit encoders. Texel alpha is kept as straight alpha.
func (img *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Size.Width, img.Size.Height))
	for y := 0; y < img.Size.Height; y++ {
		for x := 0; x < img.Size.Width; x++ {
			r, g, b, a := img.texel(x, y)
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, a
		}
	}
	return out
}

// EXR converts the image to normalized float channels.
func (img *Image) EXR() *exr.RGBAImage {
	out := exr.NewRGBAImage(image.Rect(0, 0, img.Size.Width, img.Size.Height))
	for y := 0; y < img.Size.Height; y++ {
		for x := 0; x < img.Size.Width; x++ {
			r, g, b, a := img.texel(x, y)
			out.SetRGBA(x, y, float32(r)/255, float32(g)/255, float32(b)/255, float32(a)/255)
		}
	}
	return out
}
