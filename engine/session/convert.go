package session

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// PixelBufferFromImage converts img to a bi-planar full range BT.601 YCbCr buffer.
// 4:2:0 JPEG images are copied plane by plane; anything else is converted per pixel and
// chroma is averaged over 2x2 blocks.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *gpu.PixelBuffer: the converted buffer
func PixelBufferFromImage(img image.Image) *gpu.PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := gpu.NewBiPlanarBuffer(w, h)
	luma, chroma := buf.Planes[0], buf.Planes[1]

	if ycc, ok := img.(*image.YCbCr); ok && ycc.SubsampleRatio == image.YCbCrSubsampleRatio420 {
		for y := 0; y < h; y++ {
			src := ycc.Y[ycc.YOffset(b.Min.X, b.Min.Y+y):]
			copy(luma.Data[y*luma.BytesPerRow:y*luma.BytesPerRow+w], src[:w])
		}
		for cy := 0; cy < chroma.Height; cy++ {
			for cx := 0; cx < chroma.Width; cx++ {
				ci := ycc.COffset(b.Min.X+cx*2, b.Min.Y+cy*2)
				o := cy*chroma.BytesPerRow + cx*2
				chroma.Data[o] = ycc.Cb[ci]
				chroma.Data[o+1] = ycc.Cr[ci]
			}
		}
		return buf
	}

	for cy := 0; cy < chroma.Height; cy++ {
		for cx := 0; cx < chroma.Width; cx++ {
			var cbSum, crSum, n int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := cx*2+dx, cy*2+dy
					if x >= w || y >= h {
						continue
					}
					r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
					yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
					luma.Data[y*luma.BytesPerRow+x] = yy
					cbSum += int(cb)
					crSum += int(cr)
					n++
				}
			}
			o := cy*chroma.BytesPerRow + cx*2
			chroma.Data[o] = uint8((cbSum + n/2) / n)
			chroma.Data[o+1] = uint8((crSum + n/2) / n)
		}
	}
	return buf
}

// GrayFromImage returns the luminance of img as an *image.Gray with bounds starting at the origin.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *image.Gray: the grayscale copy
func GrayFromImage(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return out
}
