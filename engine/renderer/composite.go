package renderer

import (
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer/pipeline"
)

// Fragment texture indices of the composite pipeline.
const (
	CompositeTextureLuma = iota
	CompositeTextureChroma
	CompositeTextureWhiteHalo
	CompositeTextureYellowHalo
	CompositeTextureMatte
)

type compositeInputs struct {
	luma, chroma, white, yellow, matte gpu.Texture
}

type compositeStage struct {
	pipeline pipeline.Pipeline
	plane    *imagePlane
}

func newCompositeStage(device gpu.Device, lib gpu.Library, plane *imagePlane) (*compositeStage, error) {
	p := pipeline.NewPipeline("composite", pipeline.PipelineTypeRender,
		pipeline.WithVertexFunction("compositeImageVertexTransform"),
		pipeline.WithFragmentFunction("compositeImageFragmentShader"),
		pipeline.WithColorFormat(gpu.PixelFormatBGRA8Unorm),
		pipeline.WithSampleCount(1),
		pipeline.WithCullMode(gpu.CullModeNone),
		pipeline.WithTopology(gpu.PrimitiveTypeTriangleStrip),
	)
	if err := p.Build(device, lib); err != nil {
		return nil, err
	}
	return &compositeStage{pipeline: p, plane: plane}, nil
}

// encode draws the quad into pass. Without both camera planes the pass only clears.
// It reports whether the draw was encoded.
func (c *compositeStage) encode(cmd gpu.CommandBuffer, pass *gpu.RenderPassDescriptor, in compositeInputs) (bool, error) {
	enc, err := cmd.RenderCommandEncoder(pass)
	if err != nil {
		return false, err
	}
	defer enc.EndEncoding()
	if in.luma == nil || in.chroma == nil {
		return false, nil
	}

	enc.SetCullMode(c.pipeline.CullMode())
	enc.SetRenderPipelineState(c.pipeline.RenderPipelineState())
	enc.SetVertexBuffer(c.plane.buffer, 0, 0)
	enc.SetFragmentTexture(in.luma, CompositeTextureLuma)
	enc.SetFragmentTexture(in.chroma, CompositeTextureChroma)
	enc.SetFragmentTexture(in.white, CompositeTextureWhiteHalo)
	enc.SetFragmentTexture(in.yellow, CompositeTextureYellowHalo)
	enc.SetFragmentTexture(in.matte, CompositeTextureMatte)
	enc.DrawPrimitives(c.pipeline.Topology(), 0, imagePlaneVertexCount)
	return true, nil
}
