package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// tentGroupSize matches @workgroup_size in tent.wgsl.
const tentGroupSize = 16

// tentParams mirrors TentParams in tent.wgsl.
type tentParams struct {
	radius uint32
	axis   uint32
}

func (p tentParams) bytes() []byte {
	return wgpu.ToBytes([]uint32{p.radius, p.axis, 0, 0})
}

// imageTent blurs an RGBA8 texture in place in two compute passes: horizontally into a pooled
// scratch texture and vertically back. Taps outside the image clamp to the edge texel.
type imageTent struct {
	device  *device
	radiusX int
	radiusY int
}

var _ gpu.ImageKernel = &imageTent{}

func newImageTent(d *device, radiusX, radiusY int) (*imageTent, error) {
	return &imageTent{device: d, radiusX: radiusX, radiusY: radiusY}, nil
}

func (k *imageTent) EncodeInPlace(cmd gpu.CommandBuffer, tex gpu.Texture) error {
	cb, ok := cmd.(*commandBuffer)
	if !ok {
		return fmt.Errorf("tent: foreign command buffer")
	}
	t := asTexture(tex)
	if t == nil {
		return fmt.Errorf("tent: %w", gpu.ErrReleased)
	}
	if !t.usage.Has(gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite) {
		return fmt.Errorf("tent: texture %q needs shader read and write usage", t.label)
	}
	if t.format != gpu.PixelFormatRGBA8Unorm {
		return fmt.Errorf("tent: texture %q format %s: %w", t.label, t.format, gpu.ErrUnsupportedFormat)
	}

	pipeline, err := k.device.tentPipeline()
	if err != nil {
		return err
	}
	scratch, err := k.device.scratch.get("tent scratch", t.width, t.height, t.format)
	if err != nil {
		return err
	}
	cb.retain(scratch)

	if err := k.pass(cb, pipeline, t, scratch, tentParams{radius: uint32(k.radiusX), axis: 0}); err != nil {
		return err
	}
	return k.pass(cb, pipeline, scratch, t, tentParams{radius: uint32(k.radiusY), axis: 1})
}

// pass filters src into dst along one axis.
func (k *imageTent) pass(cb *commandBuffer, pipeline *computePipelineState, src, dst *texture, params tentParams) error {
	d := k.device
	data := params.bytes()
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Tent Params Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("tent: failed to create params buffer: %w", err)
	}
	cb.retain(buf)
	d.queue.WriteBuffer(buf, 0, data)

	enc, err := cb.ComputeCommandEncoder()
	if err != nil {
		return err
	}
	ce := enc.(*computeEncoder)
	ce.SetComputePipelineState(pipeline)
	ce.SetTexture(src, 0)
	ce.SetTexture(dst, 1)
	ce.params = buf
	ce.DispatchThreadgroups(
		gpu.Size3D{Width: common.CeilDiv(src.width, tentGroupSize), Height: common.CeilDiv(src.height, tentGroupSize), Depth: 1},
		gpu.Size3D{Width: tentGroupSize, Height: tentGroupSize, Depth: 1},
	)
	ce.EndEncoding()
	return nil
}

// tentPipeline returns the shared tent pipeline, compiling it on first use.
func (d *device) tentPipeline() (*computePipelineState, error) {
	d.mu.Lock()
	p := d.tent
	d.mu.Unlock()
	if p != nil {
		return p, nil
	}

	fn, err := d.library.Function(tentFunctionName)
	if err != nil {
		return nil, err
	}
	p, err = newComputePipelineState(d, fn)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tent == nil {
		d.tent = p
	}
	return d.tent, nil
}
