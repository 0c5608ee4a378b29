package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// drawCall is everything a draw needs, captured at encode time.
type drawCall struct {
	pipeline  *renderPipelineState
	cullMode  gpu.CullMode
	buffers   [][]float32
	textures  textureArguments
	primitive gpu.PrimitiveType
	start     int
	count     int
}

// triangle holds three vertices in pixel space.
type triangle struct {
	x, y [3]float32
	tc   [3][2]float32
}

// assemble runs the vertex function and groups the results into pixel-space triangles.
// Counter-clockwise triangles in clip space are front facing.
func (dc *drawCall) assemble(width, height int) []triangle {
	outs := make([]vertexOutput, dc.count)
	for i := range outs {
		outs[i] = dc.pipeline.vertex(dc.start+i, dc.buffers)
	}

	var tris []triangle
	emit := func(a, b, c int, flip bool) {
		if flip {
			b, c = c, b
		}
		va, vb, vc := outs[a], outs[b], outs[c]
		area := (vb.position[0]-va.position[0])*(vc.position[1]-va.position[1]) -
			(vc.position[0]-va.position[0])*(vb.position[1]-va.position[1])
		front := area > 0
		if (dc.cullMode == gpu.CullModeBack && !front) || (dc.cullMode == gpu.CullModeFront && front) {
			return
		}
		var t triangle
		for i, v := range [3]vertexOutput{va, vb, vc} {
			w := v.position[3]
			if w == 0 {
				w = 1
			}
			t.x[i] = (v.position[0]/w + 1) / 2 * float32(width)
			t.y[i] = (1 - v.position[1]/w) / 2 * float32(height)
			t.tc[i] = v.texCoord
		}
		tris = append(tris, t)
	}

	switch dc.primitive {
	case gpu.PrimitiveTypeTriangleStrip:
		for i := 0; i+2 < len(outs); i++ {
			emit(i, i+1, i+2, i%2 == 1)
		}
	default:
		for i := 0; i+2 < len(outs); i += 3 {
			emit(i, i+1, i+2, false)
		}
	}
	return tris
}

// rasterize shades every pixel whose center lies inside one of tris, for rows [lo, hi).
func (dc *drawCall) rasterize(target *texture, tris []triangle, lo, hi int) {
	for _, t := range tris {
		minY := common.ClampInt(int(math.Floor(float64(min(t.y[0], t.y[1], t.y[2])))), lo, hi)
		maxY := common.ClampInt(int(math.Ceil(float64(max(t.y[0], t.y[1], t.y[2])))), lo, hi)
		minX := common.ClampInt(int(math.Floor(float64(min(t.x[0], t.x[1], t.x[2])))), 0, target.width)
		maxX := common.ClampInt(int(math.Ceil(float64(max(t.x[0], t.x[1], t.x[2])))), 0, target.width)

		area := edge(t.x[0], t.y[0], t.x[1], t.y[1], t.x[2], t.y[2])
		if area == 0 {
			continue
		}
		for py := minY; py < maxY; py++ {
			cy := float32(py) + 0.5
			for px := minX; px < maxX; px++ {
				cx := float32(px) + 0.5
				w0 := edge(t.x[1], t.y[1], t.x[2], t.y[2], cx, cy) / area
				w1 := edge(t.x[2], t.y[2], t.x[0], t.y[0], cx, cy) / area
				w2 := edge(t.x[0], t.y[0], t.x[1], t.y[1], cx, cy) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				tc := [2]float32{
					w0*t.tc[0][0] + w1*t.tc[1][0] + w2*t.tc[2][0],
					w0*t.tc[0][1] + w1*t.tc[1][1] + w2*t.tc[2][1],
				}
				c := dc.pipeline.fragment(tc, &dc.textures)
				target.setTexel(px, py, [4]uint8{
					common.UnormToByte(c[0]),
					common.UnormToByte(c[1]),
					common.UnormToByte(c[2]),
					common.UnormToByte(c[3]),
				})
			}
		}
	}
}

func edge(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}
