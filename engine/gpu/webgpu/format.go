package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

func textureFormat(f gpu.PixelFormat) (wgpu.TextureFormat, error) {
	switch f {
	case gpu.PixelFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm, nil
	case gpu.PixelFormatRG8Unorm:
		return wgpu.TextureFormatRG8Unorm, nil
	case gpu.PixelFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gpu.PixelFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm, nil
	default:
		return wgpu.TextureFormatUndefined, fmt.Errorf("%s: %w", f, gpu.ErrUnsupportedFormat)
	}
}

// textureUsage maps usage flags. Every texture can be written from the queue and copied from.
func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	usage := wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc
	if u.Has(gpu.TextureUsageShaderRead) {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if u.Has(gpu.TextureUsageShaderWrite) {
		usage |= wgpu.TextureUsageStorageBinding
	}
	if u.Has(gpu.TextureUsageRenderTarget) {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	return usage
}

func cullMode(m gpu.CullMode) wgpu.CullMode {
	switch m {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func primitiveTopology(p gpu.PrimitiveType) wgpu.PrimitiveTopology {
	if p == gpu.PrimitiveTypeTriangleStrip {
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func loadOp(a gpu.LoadAction) wgpu.LoadOp {
	if a == gpu.LoadActionLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func clearValue(c gpu.ClearColor) wgpu.Color {
	return wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// workgroupCount re-tiles a grid of groups x threads threads onto workgroups of the given size.
func workgroupCount(groups, threads gpu.Size3D, size [3]uint32) [3]uint32 {
	grid := [3]int{
		max(groups.Width, 1) * max(threads.Width, 1),
		max(groups.Height, 1) * max(threads.Height, 1),
		max(groups.Depth, 1) * max(threads.Depth, 1),
	}
	var out [3]uint32
	for i := range out {
		out[i] = uint32(common.CeilDiv(grid[i], int(max(size[i], 1))))
	}
	return out
}
