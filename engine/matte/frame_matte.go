package matte

import (
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"golang.org/x/image/draw"
)

// FrameMatte uploads the segmentation a source attached to the frame.
// Mattes are scaled to the configured resolution; the last scaled matte is cached
// since still sources attach the same image to every frame.
type FrameMatte struct {
	device     gpu.Device
	resolution Resolution

	mu          *sync.Mutex
	cachedSrc   *image.Gray
	cachedSized *image.Gray
}

var _ Generator = &FrameMatte{}

// NewFrameMatte creates a generator uploading frame mattes to device.
//
// Parameters:
//   - device: the device textures are created on
//   - resolution: the matte size relative to the captured image
//
// Returns:
//   - *FrameMatte: the generator
func NewFrameMatte(device gpu.Device, resolution Resolution) *FrameMatte {
	return &FrameMatte{device: device, resolution: resolution, mu: &sync.Mutex{}}
}

func (g *FrameMatte) GenerateMatte(frame *session.Frame, _ gpu.CommandBuffer) gpu.Texture {
	if frame == nil || frame.Matte == nil {
		return nil
	}
	size := frame.ImageSize()
	w, h := g.resolution.Size(size.Width, size.Height)
	if size.Empty() {
		b := frame.Matte.Bounds()
		w, h = b.Dx(), b.Dy()
	}

	g.mu.Lock()
	sized := g.cachedSized
	if g.cachedSrc != frame.Matte || sized == nil || sized.Bounds().Dx() != w || sized.Bounds().Dy() != h {
		sized = scaleGray(frame.Matte, w, h, draw.ApproxBiLinear)
		g.cachedSrc, g.cachedSized = frame.Matte, sized
	}
	g.mu.Unlock()

	tex, err := uploadGray(g.device, sized, "frame matte")
	if err != nil {
		common.Logger().Debug("frame matte unavailable", "trace_id", frame.TraceID, "error", err)
		return nil
	}
	return tex
}
