package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer/pipeline"
)

// HaloThreadgroupSize is the edge length of the square threadgroups the halo kernel runs in.
const HaloThreadgroupSize = 32

// HaloThreadgroups returns the dispatch grid covering a width x height texture.
//
// Parameters:
//   - width, height: the texture size in texels
//
// Returns:
//   - gpu.Size3D: ceil(width/32) x ceil(height/32) x 1
func HaloThreadgroups(width, height int) gpu.Size3D {
	return gpu.Size3D{
		Width:  common.CeilDiv(width, HaloThreadgroupSize),
		Height: common.CeilDiv(height, HaloThreadgroupSize),
		Depth:  1,
	}
}

// haloStage converts the matte into the white and yellow halo textures.
// The halos live across frames; a replaced pair is handed to the frame that replaced it.
type haloStage struct {
	device   gpu.Device
	pipeline pipeline.Pipeline

	white, yellow gpu.Texture
}

func newHaloStage(device gpu.Device, lib gpu.Library) (*haloStage, error) {
	p := pipeline.NewPipeline("matte convert", pipeline.PipelineTypeCompute,
		pipeline.WithKernelFunction("matteConvert"),
	)
	if err := p.Build(device, lib); err != nil {
		return nil, err
	}
	return &haloStage{device: device, pipeline: p}, nil
}

// ensure reallocates the halos when their size differs from width x height.
// It reports whether a reallocation happened.
func (h *haloStage) ensure(width, height int, res *frameResources) (bool, error) {
	if h.white != nil && h.white.Width() == width && h.white.Height() == height {
		return false, nil
	}
	desc := gpu.TextureDescriptor{
		Format: gpu.PixelFormatRGBA8Unorm,
		Width:  width,
		Height: height,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite,
	}
	desc.Label = "white halo"
	white, err := h.device.NewTexture(desc)
	if err != nil {
		return false, fmt.Errorf("failed to allocate halo: %w", err)
	}
	desc.Label = "yellow halo"
	yellow, err := h.device.NewTexture(desc)
	if err != nil {
		white.Release()
		return false, fmt.Errorf("failed to allocate halo: %w", err)
	}
	res.retain(h.white)
	res.retain(h.yellow)
	h.white, h.yellow = white, yellow
	return true, nil
}

func (h *haloStage) encode(cmd gpu.CommandBuffer, matte gpu.Texture) error {
	enc, err := cmd.ComputeCommandEncoder()
	if err != nil {
		return err
	}
	enc.SetComputePipelineState(h.pipeline.ComputePipelineState())
	enc.SetTexture(matte, 0)
	enc.SetTexture(h.white, 1)
	enc.SetTexture(h.yellow, 2)
	enc.DispatchThreadgroups(
		HaloThreadgroups(matte.Width(), matte.Height()),
		gpu.Size3D{Width: HaloThreadgroupSize, Height: HaloThreadgroupSize, Depth: 1},
	)
	enc.EndEncoding()
	return nil
}

func (h *haloStage) release() {
	if h.white != nil {
		h.white.Release()
	}
	if h.yellow != nil {
		h.yellow.Release()
	}
	h.white, h.yellow = nil, nil
}
