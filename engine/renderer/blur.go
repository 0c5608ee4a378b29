package renderer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

const (
	DefaultWhiteScale  = 30
	DefaultYellowScale = 100
)

// KernelSize returns the odd tent kernel size for animation time t:
// floor((sin(t/3)+2)*scale) with the low bit set.
//
// Parameters:
//   - t: the animation clock
//   - scale: the halo's blur scale
//
// Returns:
//   - int: the kernel size, odd and at least 1 for scale >= 0
func KernelSize(t uint64, scale float64) int {
	return int(math.Floor((math.Sin(float64(t)/3)+2)*scale)) | 1
}

type blurStage struct {
	device                  gpu.Device
	whiteScale, yellowScale float64
}

// encode blurs both halos in place and returns the kernel sizes used, 0 for a skipped halo.
func (b *blurStage) encode(cmd gpu.CommandBuffer, t uint64, white, yellow gpu.Texture) (int, int) {
	return b.blur(cmd, white, KernelSize(t, b.whiteScale)), b.blur(cmd, yellow, KernelSize(t, b.yellowScale))
}

func (b *blurStage) blur(cmd gpu.CommandBuffer, tex gpu.Texture, size int) int {
	if tex == nil || tex.Width() == 0 || tex.Height() == 0 {
		return 0
	}
	kernel, err := b.device.NewImageTent(size, size)
	if err != nil {
		common.Logger().Debug("blur skipped", "texture", tex.Label(), "size", size, "error", err)
		return 0
	}
	if err := kernel.EncodeInPlace(cmd, tex); err != nil {
		common.Logger().Debug("blur skipped", "texture", tex.Label(), "size", size, "error", err)
		return 0
	}
	return size
}
