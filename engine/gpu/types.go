package gpu

import "fmt"

// PixelFormat describes the layout of a single texel.
type PixelFormat int

const (
	PixelFormatInvalid PixelFormat = iota
	PixelFormatR8Unorm
	PixelFormatRG8Unorm
	PixelFormatRGBA8Unorm
	PixelFormatBGRA8Unorm
)

// BytesPerPixel returns the texel size in bytes, or 0 for PixelFormatInvalid.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatR8Unorm:
		return 1
	case PixelFormatRG8Unorm:
		return 2
	case PixelFormatRGBA8Unorm, PixelFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatR8Unorm:
		return "r8unorm"
	case PixelFormatRG8Unorm:
		return "rg8unorm"
	case PixelFormatRGBA8Unorm:
		return "rgba8unorm"
	case PixelFormatBGRA8Unorm:
		return "bgra8unorm"
	default:
		return fmt.Sprintf("pixelformat(%d)", int(f))
	}
}

// TextureUsage is a bit set of the ways a texture may be bound.
type TextureUsage uint32

const (
	TextureUsageShaderRead TextureUsage = 1 << iota
	TextureUsageShaderWrite
	TextureUsageRenderTarget
)

// Has reports whether every bit of other is set in u.
func (u TextureUsage) Has(other TextureUsage) bool {
	return u&other == other
}

// FunctionStage is the pipeline stage a library function runs in.
type FunctionStage int

const (
	FunctionStageVertex FunctionStage = iota
	FunctionStageFragment
	FunctionStageKernel
)

func (s FunctionStage) String() string {
	switch s {
	case FunctionStageVertex:
		return "vertex"
	case FunctionStageFragment:
		return "fragment"
	case FunctionStageKernel:
		return "kernel"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// PrimitiveType is the topology used to assemble vertices.
type PrimitiveType int

const (
	PrimitiveTypeTriangle PrimitiveType = iota
	PrimitiveTypeTriangleStrip
)

// LoadAction is what happens to a color attachment when a render pass begins.
type LoadAction int

const (
	LoadActionClear LoadAction = iota
	LoadActionLoad
	LoadActionDontCare
)

// CommandBufferStatus tracks a command buffer through its lifecycle.
type CommandBufferStatus int

const (
	CommandBufferStatusNotEnqueued CommandBufferStatus = iota
	CommandBufferStatusCommitted
	CommandBufferStatusCompleted
	CommandBufferStatusError
)

// Size3D is a three dimensional extent used for compute dispatch.
type Size3D struct {
	Width  int
	Height int
	Depth  int
}

// ClearColor is the RGBA value a LoadActionClear attachment is filled with.
type ClearColor struct {
	R, G, B, A float64
}

// TextureDescriptor describes a texture to allocate.
type TextureDescriptor struct {
	Label  string
	Format PixelFormat
	Width  int
	Height int
	Usage  TextureUsage
}

// Validate checks the descriptor dimensions and format.
//
// Returns:
//   - error: ErrInvalidSize or ErrUnsupportedFormat wrapped with the label, or nil
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("texture %q %dx%d: %w", d.Label, d.Width, d.Height, ErrInvalidSize)
	}
	if d.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("texture %q: %w", d.Label, ErrUnsupportedFormat)
	}
	return nil
}

// RenderPipelineDescriptor describes a render pipeline state to build.
type RenderPipelineDescriptor struct {
	Label            string
	VertexFunction   Function
	FragmentFunction Function
	ColorFormat      PixelFormat
	SampleCount      int
}

// RenderPassDescriptor describes the color attachment of a render pass.
type RenderPassDescriptor struct {
	ColorTexture Texture
	LoadAction   LoadAction
	ClearColor   ClearColor
}
