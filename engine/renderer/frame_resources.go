package renderer

import "github.com/Carmen-Shannon/oxy-halo/engine/gpu"

// frameResources holds the textures a command buffer reads until it completes.
// It is filled before commit and released from the completion handler.
type frameResources struct {
	textures []gpu.Texture
}

func (f *frameResources) retain(t gpu.Texture) {
	if t != nil {
		f.textures = append(f.textures, t)
	}
}

func (f *frameResources) release() {
	for _, t := range f.textures {
		t.Release()
	}
	f.textures = nil
}
