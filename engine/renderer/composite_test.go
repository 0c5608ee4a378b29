package renderer

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeBindings(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.renderer.RenderFrame(context.Background()))
	cb := h.lastCommitted(t)

	var luma, chroma gpu.Texture
	for _, tex := range h.device.Textures() {
		switch tex.Plane {
		case 0:
			luma = tex
		case 1:
			chroma = tex
		}
	}
	require.NotNil(t, luma)
	require.NotNil(t, chroma)
	assert.Equal(t, gpu.PixelFormatR8Unorm, luma.Format())
	assert.Equal(t, gpu.PixelFormatRG8Unorm, chroma.Format())

	want := []gpu.Texture{luma, chroma, h.renderer.halo.white, h.renderer.halo.yellow, h.matte.issued[0]}
	bound := cb.Filter(gputest.KindSetFragmentTexture)
	require.Len(t, bound, len(want))
	for i, c := range bound {
		assert.Equal(t, i, c.Index)
		assert.Same(t, want[i], c.Texture, "fragment texture %d", i)
	}

	cull := cb.Filter(gputest.KindSetCullMode)
	require.Len(t, cull, 1)
	assert.Equal(t, gpu.CullModeNone, cull[0].CullMode)

	pipelines := cb.Filter(gputest.KindSetRenderPipeline)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "composite", pipelines[0].Pipeline)

	vertexBuffers := cb.Filter(gputest.KindSetVertexBuffer)
	require.Len(t, vertexBuffers, 1)
	assert.Equal(t, 0, vertexBuffers[0].Index)

	draws := cb.Filter(gputest.KindDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, gpu.PrimitiveTypeTriangleStrip, draws[0].Primitive)
	assert.Equal(t, 0, draws[0].VertexStart)
	assert.Equal(t, 4, draws[0].VertexCount)
}

func TestCompositeSkippedWithoutCameraPlane(t *testing.T) {
	tests := []struct {
		name   string
		planes []int
	}{
		{name: "luma", planes: []int{0}},
		{name: "chroma", planes: []int{1}},
		{name: "both", planes: []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, []gputest.DeviceOption{gputest.WithFailingPlanes(tt.planes...)})
			require.NoError(t, h.renderer.RenderFrame(context.Background()))
			cb := h.lastCommitted(t)

			assert.Zero(t, cb.Count(gputest.KindDraw))
			assert.Zero(t, cb.Count(gputest.KindSetFragmentTexture))
			assert.Equal(t, 1, cb.Count(gputest.KindDispatch), "halo path does not depend on the camera planes")
			assert.Equal(t, 1, cb.Count(gputest.KindRenderPass), "the drawable is still cleared")
			assert.Equal(t, 1, cb.Count(gputest.KindPresent))
			assert.Zero(t, h.renderer.Stats().Composited)
			assert.Equal(t, uint64(1), h.renderer.Stats().NoPlanes)

			for _, tex := range h.device.Textures() {
				if tex.Plane >= 0 {
					assert.Equal(t, 1, tex.ReleaseCount(), "surviving plane %d is still released", tex.Plane)
				}
			}
		})
	}
}
