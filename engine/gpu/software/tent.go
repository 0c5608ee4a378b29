package software

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// imageTent blurs a texture in place with a separable tent filter. Each tap i in [-r, r]
// is weighted r+1-|i| and samples outside the image clamp to the nearest edge texel,
// so a uniform image is left untouched.
type imageTent struct {
	device  *device
	radiusX int
	radiusY int
}

var _ gpu.ImageKernel = &imageTent{}

func (k *imageTent) EncodeInPlace(cmd gpu.CommandBuffer, tex gpu.Texture) error {
	cb, ok := cmd.(*commandBuffer)
	if !ok {
		return fmt.Errorf("tent: foreign command buffer")
	}
	t := asTexture(tex)
	if t == nil {
		return fmt.Errorf("tent: %w", gpu.ErrReleased)
	}
	if !t.usage.Has(gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite) {
		return fmt.Errorf("tent: texture %q needs shader read and write usage", t.label)
	}
	return cb.encode(func() error {
		k.run(t)
		return nil
	})
}

func (k *imageTent) run(t *texture) {
	bpp := t.format.BytesPerPixel()
	w, h := t.width, t.height
	tmp := make([]byte, w*h*bpp)

	k.device.parallelRows(h, func(lo, hi int) {
		line := make([]byte, w)
		out := make([]byte, w)
		scratch := make([]uint32, w+k.radiusX)
		for y := lo; y < hi; y++ {
			for c := 0; c < bpp; c++ {
				for x := 0; x < w; x++ {
					line[x] = t.data[y*t.stride+x*bpp+c]
				}
				tent1D(line, out, k.radiusX, scratch)
				for x := 0; x < w; x++ {
					tmp[(y*w+x)*bpp+c] = out[x]
				}
			}
		}
	})

	k.device.parallelRows(w, func(lo, hi int) {
		line := make([]byte, h)
		out := make([]byte, h)
		scratch := make([]uint32, h+k.radiusY)
		for x := lo; x < hi; x++ {
			for c := 0; c < bpp; c++ {
				for y := 0; y < h; y++ {
					line[y] = tmp[(y*w+x)*bpp+c]
				}
				tent1D(line, out, k.radiusY, scratch)
				for y := 0; y < h; y++ {
					t.data[y*t.stride+x*bpp+c] = out[y]
				}
			}
		}
	})
}

// tent1D filters src into dst as two running box sums of width r+1: a trailing box
// over [j-r, j] evaluated for j in [0, n+r) and a leading box over it.
// scratch must hold at least len(src)+r values.
func tent1D(src, dst []byte, r int, scratch []uint32) {
	n := len(src)
	if n == 0 {
		return
	}
	if r == 0 {
		copy(dst, src)
		return
	}
	at := func(i int) uint32 {
		if i < 0 {
			return uint32(src[0])
		}
		if i >= n {
			return uint32(src[n-1])
		}
		return uint32(src[i])
	}

	trailing := scratch[:n+r]
	var sum uint32
	for a := 0; a <= r; a++ {
		sum += at(-a)
	}
	trailing[0] = sum
	for j := 1; j < n+r; j++ {
		sum += at(j) - at(j-r-1)
		trailing[j] = sum
	}

	div := uint32((r + 1) * (r + 1))
	var acc uint32
	for b := 0; b <= r; b++ {
		acc += trailing[b]
	}
	for i := 0; i < n; i++ {
		dst[i] = uint8((acc + div/2) / div)
		if i+r+1 < n+r {
			acc += trailing[i+r+1]
		}
		acc -= trailing[i]
	}
}
