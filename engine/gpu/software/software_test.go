package software

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) (gpu.Device, gpu.CommandQueue) {
	t.Helper()
	d := NewDevice(WithWorkers(3))
	t.Cleanup(d.Release)
	q, err := d.NewCommandQueue()
	require.NoError(t, err)
	return d, q
}

func commitAndWait(t *testing.T, cb gpu.CommandBuffer) {
	t.Helper()
	done := make(chan struct{})
	cb.AddCompletedHandler(func(gpu.CommandBuffer) { close(done) })
	cb.Commit()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command buffer did not complete")
	}
}

func newFilledTexture(t *testing.T, d gpu.Device, format gpu.PixelFormat, w, h int, usage gpu.TextureUsage, fill ...byte) gpu.Texture {
	t.Helper()
	tex, err := d.NewTexture(gpu.TextureDescriptor{Label: format.String(), Format: format, Width: w, Height: h, Usage: usage})
	require.NoError(t, err)
	if len(fill) > 0 {
		data := make([]byte, 0, w*h*len(fill))
		for range w * h {
			data = append(data, fill...)
		}
		require.NoError(t, tex.ReplaceRegion(data, w*format.BytesPerPixel()))
	}
	return tex
}

func pixels(t *testing.T, tex gpu.Texture) []byte {
	t.Helper()
	data, err := tex.(gpu.TextureReader).ReadPixels()
	require.NoError(t, err)
	return data
}

func TestUniformMatteConvertAndBlur(t *testing.T) {
	d, q := newTestDevice(t)
	lib, err := d.DefaultLibrary()
	require.NoError(t, err)
	fn, err := lib.Function("matteConvert")
	require.NoError(t, err)
	state, err := d.NewComputePipelineState(fn)
	require.NoError(t, err)

	rw := gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite
	matte := newFilledTexture(t, d, gpu.PixelFormatR8Unorm, 2, 2, gpu.TextureUsageShaderRead, 128)
	white := newFilledTexture(t, d, gpu.PixelFormatRGBA8Unorm, 2, 2, rw)
	yellow := newFilledTexture(t, d, gpu.PixelFormatRGBA8Unorm, 2, 2, rw)

	cb, err := q.CommandBuffer()
	require.NoError(t, err)
	enc, err := cb.ComputeCommandEncoder()
	require.NoError(t, err)
	enc.SetComputePipelineState(state)
	enc.SetTexture(matte, 0)
	enc.SetTexture(white, 1)
	enc.SetTexture(yellow, 2)
	enc.DispatchThreadgroups(gpu.Size3D{Width: 1, Height: 1, Depth: 1}, gpu.Size3D{Width: 32, Height: 32, Depth: 1})
	enc.EndEncoding()

	size := int(float64(2)*30) | 1
	require.Equal(t, 61, size)
	tent, err := d.NewImageTent(size, size)
	require.NoError(t, err)
	require.NoError(t, tent.EncodeInPlace(cb, white))
	require.NoError(t, tent.EncodeInPlace(cb, yellow))

	commitAndWait(t, cb)
	require.NoError(t, cb.Err())
	assert.Equal(t, gpu.CommandBufferStatusCompleted, cb.Status())

	assert.Equal(t, []byte{
		128, 128, 128, 128, 128, 128, 128, 128,
		128, 128, 128, 128, 128, 128, 128, 128,
	}, pixels(t, white))
	assert.Equal(t, []byte{
		128, 128, 0, 128, 128, 128, 0, 128,
		128, 128, 0, 128, 128, 128, 0, 128,
	}, pixels(t, yellow))
}

func TestMatteConvertBoundsChecks(t *testing.T) {
	d, _ := newTestDevice(t)
	matte := asTexture(newFilledTexture(t, d, gpu.PixelFormatR8Unorm, 3, 1, gpu.TextureUsageShaderRead, 200))
	white := asTexture(newFilledTexture(t, d, gpu.PixelFormatRGBA8Unorm, 3, 1, gpu.TextureUsageShaderWrite))
	args := &textureArguments{matte, white}

	for y := range 32 {
		for x := range 32 {
			matteConvert(x, y, args)
		}
	}
	assert.Equal(t, []byte{200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200}, white.data)
}

func TestImageTentValidation(t *testing.T) {
	d, q := newTestDevice(t)
	for _, size := range [][2]int{{0, 1}, {2, 3}, {3, 4}, {-1, -1}} {
		_, err := d.NewImageTent(size[0], size[1])
		assert.ErrorIs(t, err, gpu.ErrInvalidSize, "%v", size)
	}

	tent, err := d.NewImageTent(3, 3)
	require.NoError(t, err)
	cb, err := q.CommandBuffer()
	require.NoError(t, err)
	readOnly := newFilledTexture(t, d, gpu.PixelFormatRGBA8Unorm, 2, 2, gpu.TextureUsageShaderRead)
	assert.Error(t, tent.EncodeInPlace(cb, readOnly))
}

func TestTextureCache(t *testing.T) {
	d, _ := newTestDevice(t)
	c, err := d.NewTextureCache()
	require.NoError(t, err)
	cache := c.(*textureCache)

	buf := gpu.NewBiPlanarBuffer(4, 2)
	luma, err := cache.TextureFromImage(buf, gpu.PixelFormatR8Unorm, 0)
	require.NoError(t, err)
	chroma, err := cache.TextureFromImage(buf, gpu.PixelFormatRG8Unorm, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Live())
	assert.Equal(t, 4, luma.Width())
	assert.Equal(t, 2, chroma.Width())
	assert.Equal(t, 1, chroma.Height())

	buf.Planes[0].Data[5] = 77
	assert.Equal(t, byte(77), pixels(t, luma)[5], "plane textures alias the pixel buffer")

	luma.Release()
	luma.Release()
	assert.Equal(t, 1, cache.Live())
	again, err := cache.TextureFromImage(buf, gpu.PixelFormatR8Unorm, 0)
	require.NoError(t, err)
	assert.Same(t, luma, again, "released headers are recycled")

	again.Release()
	chroma.Release()
	cache.Flush()
	fresh, err := cache.TextureFromImage(buf, gpu.PixelFormatR8Unorm, 0)
	require.NoError(t, err)
	assert.NotSame(t, luma, fresh)
}

func TestTextureCacheErrors(t *testing.T) {
	d, _ := newTestDevice(t)
	cache, err := d.NewTextureCache()
	require.NoError(t, err)
	buf := gpu.NewBiPlanarBuffer(4, 4)

	_, err = cache.TextureFromImage(buf, gpu.PixelFormatR8Unorm, 2)
	assert.ErrorIs(t, err, gpu.ErrPlaneOutOfRange)
	_, err = cache.TextureFromImage(buf, gpu.PixelFormatRG8Unorm, 0)
	assert.ErrorIs(t, err, gpu.ErrUnsupportedFormat)
	_, err = cache.TextureFromImage(&gpu.PixelBuffer{Planes: []gpu.Plane{{BytesPerPixel: 1}}}, gpu.PixelFormatR8Unorm, 0)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}

func TestCompositeDrawsFullQuad(t *testing.T) {
	d, q := newTestDevice(t)
	lib, err := d.DefaultLibrary()
	require.NoError(t, err)
	vf, err := lib.Function("compositeImageVertexTransform")
	require.NoError(t, err)
	ff, err := lib.Function("compositeImageFragmentShader")
	require.NoError(t, err)
	state, err := d.NewRenderPipelineState(gpu.RenderPipelineDescriptor{
		Label:            "composite",
		VertexFunction:   vf,
		FragmentFunction: ff,
		ColorFormat:      gpu.PixelFormatBGRA8Unorm,
		SampleCount:      1,
	})
	require.NoError(t, err)

	vertices, err := d.NewBuffer(common.SliceToBytes([]float32{
		-1, -1, 0, 1,
		1, -1, 1, 1,
		-1, 1, 0, 0,
		1, 1, 1, 0,
	}), "quad")
	require.NoError(t, err)

	luma := newFilledTexture(t, d, gpu.PixelFormatR8Unorm, 4, 4, gpu.TextureUsageShaderRead, 255)
	chroma := newFilledTexture(t, d, gpu.PixelFormatRG8Unorm, 2, 2, gpu.TextureUsageShaderRead, 128, 128)

	view, err := NewOffscreenView(common.Size{Width: 6, Height: 5}, 2)
	require.NoError(t, err)
	drawable := view.CurrentDrawable()
	cb, err := q.CommandBuffer()
	require.NoError(t, err)
	enc, err := cb.RenderCommandEncoder(view.CurrentRenderPassDescriptor())
	require.NoError(t, err)
	enc.SetCullMode(gpu.CullModeNone)
	enc.SetRenderPipelineState(state)
	enc.SetVertexBuffer(vertices, 0, 0)
	enc.SetFragmentTexture(luma, 0)
	enc.SetFragmentTexture(chroma, 1)
	enc.DrawPrimitives(gpu.PrimitiveTypeTriangleStrip, 0, 4)
	enc.EndEncoding()
	cb.Present(drawable)
	assert.NotSame(t, drawable, view.CurrentDrawable(), "presenting ends the drawable's frame")

	commitAndWait(t, cb)
	require.NoError(t, cb.Err())

	out, size := view.LastPresented()
	assert.Equal(t, common.Size{Width: 6, Height: 5}, size)
	require.Len(t, out, 6*5*4)
	for i, b := range out {
		require.InDelta(t, 255, int(b), 1, "byte %d", i)
	}
	assert.Equal(t, uint64(1), view.Presents())
}

func TestAssembleCulling(t *testing.T) {
	pass := func(vid int, buffers [][]float32) vertexOutput {
		v := buffers[0][vid*2 : vid*2+2]
		return vertexOutput{position: [4]float32{v[0], v[1], 0, 1}}
	}
	ccw := []float32{-1, -1, 1, -1, -1, 1}
	cw := []float32{-1, -1, -1, 1, 1, -1}

	tests := []struct {
		name     string
		cull     gpu.CullMode
		vertices []float32
		want     int
	}{
		{name: "none keeps front", cull: gpu.CullModeNone, vertices: ccw, want: 1},
		{name: "none keeps back", cull: gpu.CullModeNone, vertices: cw, want: 1},
		{name: "back culls clockwise", cull: gpu.CullModeBack, vertices: cw, want: 0},
		{name: "back keeps counter-clockwise", cull: gpu.CullModeBack, vertices: ccw, want: 1},
		{name: "front culls counter-clockwise", cull: gpu.CullModeFront, vertices: ccw, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := &drawCall{
				pipeline:  &renderPipelineState{vertex: pass},
				cullMode:  tt.cull,
				buffers:   [][]float32{tt.vertices},
				primitive: gpu.PrimitiveTypeTriangle,
				count:     3,
			}
			assert.Len(t, dc.assemble(8, 8), tt.want)
		})
	}
}

func TestTriangleStripKeepsWindingUnderBackCulling(t *testing.T) {
	dc := &drawCall{
		pipeline:  &renderPipelineState{vertex: compositeImageVertexTransform},
		cullMode:  gpu.CullModeBack,
		buffers:   [][]float32{{-1, -1, 0, 1, 1, -1, 1, 1, -1, 1, 0, 0, 1, 1, 1, 0}},
		primitive: gpu.PrimitiveTypeTriangleStrip,
		count:     4,
	}
	assert.Len(t, dc.assemble(4, 4), 2)
}

func TestCommandBufferLifecycle(t *testing.T) {
	_, q := newTestDevice(t)
	cb, err := q.CommandBuffer()
	require.NoError(t, err)

	calls := 0
	cb.AddCompletedHandler(func(gpu.CommandBuffer) { calls++ })
	commitAndWait(t, cb)
	cb.Commit()
	assert.Equal(t, 1, calls)
	assert.Equal(t, gpu.CommandBufferStatusCompleted, cb.Status())

	_, err = cb.ComputeCommandEncoder()
	assert.ErrorIs(t, err, gpu.ErrCommitted)
}

func TestCommitAfterRelease(t *testing.T) {
	d := NewDevice(WithWorkers(1))
	q, err := d.NewCommandQueue()
	require.NoError(t, err)
	cb, err := q.CommandBuffer()
	require.NoError(t, err)
	d.Release()

	commitAndWait(t, cb)
	assert.Equal(t, gpu.CommandBufferStatusError, cb.Status())
	assert.ErrorIs(t, cb.Err(), gpu.ErrReleased)

	_, err = q.CommandBuffer()
	assert.ErrorIs(t, err, gpu.ErrReleased)
}

func TestCommandBuffersRunInCommitOrder(t *testing.T) {
	_, q := newTestDevice(t)
	var order []int
	done := make(chan struct{})
	for i := range 5 {
		cb, err := q.CommandBuffer()
		require.NoError(t, err)
		cb.AddCompletedHandler(func(gpu.CommandBuffer) {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
		cb.Commit()
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command buffers did not complete")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestCompositeFragmentBlendsPremultipliedHalos(t *testing.T) {
	d, _ := newTestDevice(t)
	texel := func(format gpu.PixelFormat, fill ...byte) *texture {
		return asTexture(newFilledTexture(t, d, format, 1, 1, gpu.TextureUsageShaderRead, fill...))
	}
	const luma = 100.0 / 255
	const half = 128.0 / 255

	tests := []struct {
		name   string
		luma   byte
		white  []byte
		yellow []byte
		matte  byte
		want   [3]float32
	}{
		{
			name:  "subject shows the camera",
			luma:  100,
			white: []byte{255, 255, 255, 255}, yellow: []byte{255, 255, 0, 255},
			matte: 255,
			want:  [3]float32{luma, luma, luma},
		},
		{
			name:  "halo over black",
			luma:  0,
			white: []byte{128, 128, 128, 128},
			matte: 0,
			want:  [3]float32{half, half, half},
		},
		{
			name:  "halo over grey",
			luma:  100,
			white: []byte{128, 128, 128, 128},
			matte: 0,
			want:  [3]float32{luma*(1-half) + half, luma*(1-half) + half, luma*(1-half) + half},
		},
		{
			name:  "half matte halves the halo",
			luma:  0,
			white: []byte{255, 255, 255, 255},
			matte: 128,
			want:  [3]float32{1 - half, 1 - half, 1 - half},
		},
		{
			name:  "white lies over yellow",
			luma:  0,
			white: []byte{128, 128, 128, 128}, yellow: []byte{255, 255, 0, 255},
			matte: 0,
			want:  [3]float32{1, 1, half},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := &textureArguments{
				texel(gpu.PixelFormatR8Unorm, tt.luma),
				texel(gpu.PixelFormatRG8Unorm, 128, 128),
			}
			if tt.white != nil {
				args[2] = texel(gpu.PixelFormatRGBA8Unorm, tt.white...)
			}
			if tt.yellow != nil {
				args[3] = texel(gpu.PixelFormatRGBA8Unorm, tt.yellow...)
			}
			args[4] = texel(gpu.PixelFormatR8Unorm, tt.matte)

			got := compositeImageFragmentShader([2]float32{0.5, 0.5}, args)
			for i, want := range tt.want {
				assert.InDelta(t, want, got[i], 0.01, "channel %d", i)
			}
			assert.Equal(t, float32(1), got[3])
		})
	}
}
