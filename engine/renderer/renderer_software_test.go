package renderer

import (
	"context"
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/software"
	"github.com/Carmen-Shannon/oxy-halo/engine/matte"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTexels(t *testing.T, tex gpu.Texture) []byte {
	t.Helper()
	reader, ok := tex.(gpu.TextureReader)
	require.True(t, ok, "%s is not readable", tex.Label())
	data, err := reader.ReadPixels()
	require.NoError(t, err)
	return data
}

func TestSoftwareUniformMatteSurvivesBlur(t *testing.T) {
	ctx := context.Background()
	device := software.NewDevice(software.WithWorkers(2))
	defer device.Release()

	view, err := software.NewOffscreenView(common.Size{Width: 8, Height: 8}, 2)
	require.NoError(t, err)

	m := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range m.Pix {
		m.Pix[i] = 128
	}
	mailbox := session.NewMailbox()
	mailbox.Publish(&session.Frame{Seq: 1, TraceID: "uniform", CapturedImage: gpu.NewBiPlanarBuffer(4, 4), Matte: m})

	r, err := NewRenderer(device, mailbox, matte.NewFrameMatte(device, matte.ResolutionHalf), view)
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, r.RenderFrame(ctx))
	}
	require.NoError(t, r.Wait(ctx))

	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.Completed)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, uint64(3), stats.Composited)
	assert.Equal(t, uint64(3), view.Presents())

	whiteTex, yellowTex := r.Halos()
	white := readTexels(t, whiteTex)
	yellow := readTexels(t, yellowTex)
	require.Len(t, white, 2*2*4)
	require.Len(t, yellow, 2*2*4)
	for i := 0; i < len(white); i += 4 {
		assert.Equal(t, []byte{128, 128, 128, 128}, white[i:i+4], "white texel %d", i/4)
		assert.Equal(t, []byte{128, 128, 0, 128}, yellow[i:i+4], "yellow texel %d", i/4)
	}

	pixels, size := view.LastPresented()
	assert.Equal(t, common.Size{Width: 8, Height: 8}, size)
	require.Len(t, pixels, 8*8*4)
	for i := 3; i < len(pixels); i += 4 {
		require.Equal(t, byte(255), pixels[i], "composite is opaque")
	}

	require.NoError(t, r.Close())
}

func TestSoftwareCompositeColor(t *testing.T) {
	ctx := context.Background()
	device := software.NewDevice(software.WithWorkers(2))
	defer device.Release()

	view, err := software.NewOffscreenView(common.Size{Width: 4, Height: 4}, 2)
	require.NoError(t, err)

	camera := gpu.NewBiPlanarBuffer(4, 4)
	for i := range camera.Planes[0].Data {
		camera.Planes[0].Data[i] = 100
	}
	for i := range camera.Planes[1].Data {
		camera.Planes[1].Data[i] = 128
	}
	m := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range m.Pix {
		m.Pix[i] = 128
	}
	mailbox := session.NewMailbox()
	mailbox.Publish(&session.Frame{Seq: 1, TraceID: "color", CapturedImage: camera, Matte: m})

	r, err := NewRenderer(device, mailbox, matte.NewFrameMatte(device, matte.ResolutionHalf), view)
	require.NoError(t, err)
	require.NoError(t, r.RenderFrame(ctx))
	require.NoError(t, r.Wait(ctx))
	require.NoError(t, r.Close())

	// Camera grey (0.395, 0.390, 0.396) with both halos at 128/255 lying over it at half coverage.
	want := [3]float64{0.4725, 0.6569, 0.6596}
	pixels, _ := view.LastPresented()
	require.Len(t, pixels, 4*4*4)
	for i := 0; i < len(pixels); i += 4 {
		for c, v := range want {
			assert.InDelta(t, v*255, float64(pixels[i+c]), 1.5, "pixel %d channel %d", i/4, c)
		}
		assert.Equal(t, byte(255), pixels[i+3])
	}
}
