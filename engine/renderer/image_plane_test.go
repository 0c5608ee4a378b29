package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePlaneInitialVertices(t *testing.T) {
	device := gputest.NewDevice()
	plane, err := newImagePlane(device)
	require.NoError(t, err)

	buffer := plane.buffer.(*gputest.Buffer)
	assert.Equal(t, 64, buffer.Len())
	assert.Equal(t, imagePlaneVertexData[:], buffer.Floats())
	assert.Zero(t, buffer.Modifications())
}

func TestImagePlaneTexCoords(t *testing.T) {
	tests := []struct {
		name      string
		transform common.AffineTransform
		want      [4][2]float32
	}{
		{
			name:      "identity keeps defaults",
			transform: common.IdentityTransform(),
			want:      [4][2]float32{{0, 1}, {1, 1}, {0, 0}, {1, 0}},
		},
		{
			name:      "horizontal flip",
			transform: common.AffineTransform{A: -1, D: 1, Tx: 1},
			want:      [4][2]float32{{1, 1}, {0, 1}, {1, 0}, {0, 0}},
		},
		{
			name:      "scale about origin",
			transform: common.ScaleTransform(2, 2),
			want:      [4][2]float32{{0, 0.5}, {0.5, 0.5}, {0, 0}, {0.5, 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane, err := newImagePlane(gputest.NewDevice())
			require.NoError(t, err)
			plane.updateTexCoords(tt.transform)

			buffer := plane.buffer.(*gputest.Buffer)
			vertices := buffer.Floats()
			for i, uv := range tt.want {
				at := i * imagePlaneStride
				assert.Equal(t, imagePlaneVertexData[at:at+2], vertices[at:at+2], "position %d", i)
				assert.InDelta(t, uv[0], vertices[at+2], 1e-6, "u %d", i)
				assert.InDelta(t, uv[1], vertices[at+3], 1e-6, "v %d", i)
			}
			assert.Equal(t, 1, buffer.Modifications())
		})
	}
}
