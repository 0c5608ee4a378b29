package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernelSize(t *testing.T) {
	tests := []struct {
		name  string
		t     uint64
		scale float64
		want  int
	}{
		{name: "white at rest", t: 0, scale: DefaultWhiteScale, want: 61},
		{name: "yellow at rest", t: 0, scale: DefaultYellowScale, want: 201},
		{name: "white first frame", t: 1, scale: DefaultWhiteScale, want: 69},
		{name: "yellow first frame", t: 1, scale: DefaultYellowScale, want: 233},
		{name: "zero scale", t: 7, scale: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KernelSize(tt.t, tt.scale))
		})
	}
}

func TestKernelSizeIsOddAndBounded(t *testing.T) {
	for _, scale := range []float64{DefaultWhiteScale, DefaultYellowScale, 1, 7.5} {
		lo := int(scale) | 1
		hi := int(3*scale) | 1
		for tick := uint64(0); tick < 20000; tick++ {
			k := KernelSize(tick, scale)
			require.Equal(t, 1, k%2, "scale %v t %d: %d is even", scale, tick, k)
			require.GreaterOrEqual(t, k, lo, "scale %v t %d", scale, tick)
			require.LessOrEqual(t, k, hi, "scale %v t %d", scale, tick)
		}
	}
}

func TestBlurSkipsMissingTextures(t *testing.T) {
	device := gputest.NewDevice()
	queue, err := device.NewCommandQueue()
	require.NoError(t, err)
	cmd, err := queue.CommandBuffer()
	require.NoError(t, err)

	halo, err := device.NewTexture(gpu.TextureDescriptor{
		Label:  "halo",
		Format: gpu.PixelFormatRGBA8Unorm,
		Width:  2,
		Height: 2,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite,
	})
	require.NoError(t, err)

	b := &blurStage{device: device, whiteScale: DefaultWhiteScale, yellowScale: DefaultYellowScale}
	white, yellow := b.encode(cmd, 0, nil, halo)
	assert.Zero(t, white)
	assert.Equal(t, 201, yellow)

	kernels := cmd.(*gputest.CommandBuffer).Filter(gputest.KindImageKernel)
	require.Len(t, kernels, 1)
	assert.Same(t, halo, kernels[0].Texture)
	assert.Equal(t, 201, kernels[0].KernelWidth)
	assert.Equal(t, 201, kernels[0].KernelHeight)
}

func TestHaloThreadgroups(t *testing.T) {
	tests := []struct {
		w, h int
		want gpu.Size3D
	}{
		{w: 1, h: 1, want: gpu.Size3D{Width: 1, Height: 1, Depth: 1}},
		{w: 32, h: 32, want: gpu.Size3D{Width: 1, Height: 1, Depth: 1}},
		{w: 33, h: 64, want: gpu.Size3D{Width: 2, Height: 2, Depth: 1}},
		{w: 960, h: 541, want: gpu.Size3D{Width: 30, Height: 17, Depth: 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HaloThreadgroups(tt.w, tt.h), "%dx%d", tt.w, tt.h)
	}
}
