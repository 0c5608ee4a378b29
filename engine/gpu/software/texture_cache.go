package software

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// textureCache wraps pixel buffer planes without copying. Texture headers are recycled
// through a free list once released, which is what the cache amortizes.
type textureCache struct {
	mu   *sync.Mutex
	free []*texture
	live int
}

var _ gpu.TextureCache = &textureCache{}

func newTextureCache() *textureCache {
	return &textureCache{mu: &sync.Mutex{}}
}

func (c *textureCache) TextureFromImage(buf *gpu.PixelBuffer, format gpu.PixelFormat, plane int) (gpu.Texture, error) {
	p, err := buf.Plane(plane)
	if err != nil {
		return nil, err
	}
	if format.BytesPerPixel() == 0 || format.BytesPerPixel() != p.BytesPerPixel {
		return nil, fmt.Errorf("plane %d has %d bytes per pixel, format %s: %w", plane, p.BytesPerPixel, format, gpu.ErrUnsupportedFormat)
	}
	if p.Width <= 0 || p.Height <= 0 || p.BytesPerRow < p.Width*p.BytesPerPixel || len(p.Data) < p.BytesPerRow*(p.Height-1)+p.Width*p.BytesPerPixel {
		return nil, fmt.Errorf("plane %d %dx%d: %w", plane, p.Width, p.Height, gpu.ErrInvalidSize)
	}

	c.mu.Lock()
	var t *texture
	if n := len(c.free); n > 0 {
		t = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		t = &texture{onRelease: c.recycle}
	}
	c.live++
	c.mu.Unlock()

	t.label = fmt.Sprintf("plane %d", plane)
	t.width = p.Width
	t.height = p.Height
	t.format = format
	t.usage = gpu.TextureUsageShaderRead
	t.stride = p.BytesPerRow
	t.data = p.Data
	t.released.Store(false)
	return t, nil
}

func (c *textureCache) recycle(t *texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t.data = nil
	c.live--
	c.free = append(c.free, t)
}

func (c *textureCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.free = nil
}

// Live returns the number of plane textures handed out and not yet released.
func (c *textureCache) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}
