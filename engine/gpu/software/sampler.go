package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-halo/common"
)

// sample reads t at normalized coordinates with bilinear filtering and clamp-to-edge addressing.
// A nil texture samples as transparent black.
func sample(t *texture, tc [2]float32) [4]float32 {
	if t == nil || t.width == 0 || t.height == 0 {
		return [4]float32{}
	}
	fx := float64(tc[0])*float64(t.width) - 0.5
	fy := float64(tc[1])*float64(t.height) - 0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	ax, ay := float32(fx-x0f), float32(fy-y0f)

	x0 := common.ClampInt(int(x0f), 0, t.width-1)
	x1 := common.ClampInt(int(x0f)+1, 0, t.width-1)
	y0 := common.ClampInt(int(y0f), 0, t.height-1)
	y1 := common.ClampInt(int(y0f)+1, 0, t.height-1)

	c00, c10 := t.texel(x0, y0), t.texel(x1, y0)
	c01, c11 := t.texel(x0, y1), t.texel(x1, y1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bottom := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}
