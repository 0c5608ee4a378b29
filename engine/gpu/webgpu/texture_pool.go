package webgpu

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

type poolKey struct {
	width, height int
	format        gpu.PixelFormat
}

// texturePool recycles textures of one usage by size and format. Released textures return
// to the pool instead of being destroyed.
type texturePool struct {
	device *device
	usage  gpu.TextureUsage

	mu   *sync.Mutex
	free map[poolKey][]*texture
	live int
}

func newTexturePool(d *device, usage gpu.TextureUsage) *texturePool {
	return &texturePool{
		device: d,
		usage:  usage,
		mu:     &sync.Mutex{},
		free:   make(map[poolKey][]*texture),
	}
}

// get returns a recycled texture of the given size and format or allocates one.
func (p *texturePool) get(label string, width, height int, format gpu.PixelFormat) (*texture, error) {
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	var t *texture
	if n := len(p.free[key]); n > 0 {
		t = p.free[key][n-1]
		p.free[key] = p.free[key][:n-1]
	}
	p.live++
	p.mu.Unlock()

	if t == nil {
		var err error
		t, err = p.device.newTexture(gpu.TextureDescriptor{
			Label:  label,
			Format: format,
			Width:  width,
			Height: height,
			Usage:  p.usage,
		})
		if err != nil {
			p.mu.Lock()
			p.live--
			p.mu.Unlock()
			return nil, err
		}
		t.onRelease = p.recycle
	}
	t.label = label
	t.released.Store(false)
	return t, nil
}

func (p *texturePool) recycle(t *texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := poolKey{width: t.width, height: t.height, format: t.format}
	p.live--
	p.free[key] = append(p.free[key], t)
}

// flush destroys every pooled texture that is not handed out.
func (p *texturePool) flush() {
	p.mu.Lock()
	free := p.free
	p.free = make(map[poolKey][]*texture)
	p.mu.Unlock()

	for _, ts := range free {
		for _, t := range ts {
			t.destroy()
		}
	}
}
