package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// textureCache wraps the device cache that maps pixel buffer planes to textures.
// It is created once per renderer.
type textureCache struct {
	cache gpu.TextureCache
}

func newTextureCache(device gpu.Device) (*textureCache, error) {
	cache, err := device.NewTextureCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create texture cache: %w", err)
	}
	return &textureCache{cache: cache}, nil
}

// planeTexture returns a texture for plane of buf. The caller releases it.
func (c *textureCache) planeTexture(buf *gpu.PixelBuffer, format gpu.PixelFormat, plane int) (gpu.Texture, error) {
	tex, err := c.cache.TextureFromImage(buf, format, plane)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s texture for plane %d: %w", format, plane, err)
	}
	return tex, nil
}

func (c *textureCache) flush() {
	c.cache.Flush()
}
