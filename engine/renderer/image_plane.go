package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

const (
	imagePlaneVertexCount = 4
	imagePlaneStride      = 4
)

// imagePlaneVertexData is the full screen quad in triangle strip order as {x, y, u, v}.
var imagePlaneVertexData = [imagePlaneVertexCount * imagePlaneStride]float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

// imagePlane owns the quad's vertex buffer. Positions never change; texcoords follow the display transform.
type imagePlane struct {
	buffer gpu.Buffer
}

func newImagePlane(device gpu.Device) (*imagePlane, error) {
	data := imagePlaneVertexData
	buffer, err := device.NewBuffer(common.SliceToBytes(data[:]), "image plane vertices")
	if err != nil {
		return nil, fmt.Errorf("failed to create image plane buffer: %w", err)
	}
	return &imagePlane{buffer: buffer}, nil
}

// updateTexCoords maps each default texcoord through the inverse of displayTransform.
func (p *imagePlane) updateTexCoords(displayTransform common.AffineTransform) {
	toCamera := displayTransform.Invert()
	vertices := common.BytesToFloat32s(p.buffer.Contents())
	for i := range imagePlaneVertexCount {
		at := i*imagePlaneStride + 2
		uv := toCamera.Apply(common.Point{
			X: float64(imagePlaneVertexData[at]),
			Y: float64(imagePlaneVertexData[at+1]),
		})
		vertices[at] = float32(uv.X)
		vertices[at+1] = float32(uv.Y)
	}
	p.buffer.DidModify()
}

func (p *imagePlane) release() {
	p.buffer.Release()
}
