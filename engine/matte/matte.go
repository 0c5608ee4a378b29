package matte

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"golang.org/x/image/draw"
)

// Generator produces the person segmentation texture for a frame.
type Generator interface {
	// GenerateMatte returns a single channel R8 matte for frame, encoding any GPU work into cmd.
	// The caller owns the returned texture and releases it once cmd completed.
	//
	// Parameters:
	//   - frame: the current camera frame
	//   - cmd: the frame's command buffer
	//
	// Returns:
	//   - gpu.Texture: the matte, or nil if segmentation is not available for this frame
	GenerateMatte(frame *session.Frame, cmd gpu.CommandBuffer) gpu.Texture
}

// Resolution selects the matte size relative to the captured image.
type Resolution int

const (
	ResolutionHalf Resolution = iota
	ResolutionFull
)

// Size returns the matte size for an image of the given size.
func (r Resolution) Size(width, height int) (int, int) {
	if r == ResolutionFull {
		return width, height
	}
	return max(width/2, 1), max(height/2, 1)
}

// uploadGray copies img into a new R8 texture.
func uploadGray(device gpu.Device, img *image.Gray, label string) (gpu.Texture, error) {
	b := img.Bounds()
	tex, err := device.NewTexture(gpu.TextureDescriptor{
		Label:  label,
		Format: gpu.PixelFormatR8Unorm,
		Width:  b.Dx(),
		Height: b.Dy(),
		Usage:  gpu.TextureUsageShaderRead,
	})
	if err != nil {
		return nil, err
	}
	if err := tex.ReplaceRegion(img.Pix[img.PixOffset(b.Min.X, b.Min.Y):], img.Stride); err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to upload %s: %w", label, err)
	}
	return tex, nil
}

// scaleGray resamples src to width x height, returning src itself when it already fits.
func scaleGray(src *image.Gray, width, height int, scaler draw.Scaler) *image.Gray {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
