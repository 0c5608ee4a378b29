package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// textureCache uploads pixel buffer planes into pooled sampled textures.
// A plane texture returns to the pool once every frame that read it released it.
type textureCache struct {
	pool *texturePool
}

var _ gpu.TextureCache = &textureCache{}

func newTextureCache(d *device) *textureCache {
	return &textureCache{pool: newTexturePool(d, gpu.TextureUsageShaderRead)}
}

func (c *textureCache) TextureFromImage(buf *gpu.PixelBuffer, format gpu.PixelFormat, plane int) (gpu.Texture, error) {
	p, err := buf.Plane(plane)
	if err != nil {
		return nil, err
	}
	if format.BytesPerPixel() == 0 || format.BytesPerPixel() != p.BytesPerPixel {
		return nil, fmt.Errorf("plane %d has %d bytes per pixel, format %s: %w", plane, p.BytesPerPixel, format, gpu.ErrUnsupportedFormat)
	}
	row := p.Width * p.BytesPerPixel
	if p.Width <= 0 || p.Height <= 0 || p.BytesPerRow < row || len(p.Data) < p.BytesPerRow*(p.Height-1)+row {
		return nil, fmt.Errorf("plane %d %dx%d: %w", plane, p.Width, p.Height, gpu.ErrInvalidSize)
	}

	t, err := c.pool.get(fmt.Sprintf("plane %d", plane), p.Width, p.Height, format)
	if err != nil {
		return nil, err
	}
	t.write(p.Data[:p.BytesPerRow*(p.Height-1)+row], p.BytesPerRow)
	return t, nil
}

func (c *textureCache) Flush() {
	c.pool.flush()
}
