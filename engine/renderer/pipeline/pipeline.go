package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single kernel function.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment functions.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	// pipelineKey names the pipeline in logs and is the label of the compiled state
	pipelineKey string

	vertexFunction, fragmentFunction, kernelFunction string

	// The following are only used by render pipelines.

	colorFormat gpu.PixelFormat
	sampleCount int
	cullMode    gpu.CullMode
	topology    gpu.PrimitiveType

	renderState  gpu.RenderPipelineState
	computeState gpu.ComputePipelineState
}

// Pipeline describes a compute or render pipeline by the library function names it runs,
// together with the fixed function state draws are encoded with. Build compiles it on a device.
type Pipeline interface {
	// Type returns the type of the pipeline.
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// FunctionName returns the library function used for the given stage, or "" if not set.
	//
	// Parameters:
	//   - stage: the function stage
	//
	// Returns:
	//   - string: the function name
	FunctionName(stage gpu.FunctionStage) string

	// ColorFormat returns the color attachment format of a render pipeline.
	ColorFormat() gpu.PixelFormat

	// SampleCount returns the rasterization sample count of a render pipeline.
	SampleCount() int

	// CullMode returns the cull mode draws with this pipeline are encoded with.
	CullMode() gpu.CullMode

	// Topology returns the primitive topology draws with this pipeline use.
	Topology() gpu.PrimitiveType

	// Build looks up the pipeline's functions in lib and compiles the pipeline state on device.
	//
	// Parameters:
	//   - device: the device to compile on
	//   - lib: the library functions are resolved from
	//
	// Returns:
	//   - error: error if a function is missing or compilation fails
	Build(device gpu.Device, lib gpu.Library) error

	// RenderPipelineState returns the compiled render state, nil before Build or for compute pipelines.
	RenderPipelineState() gpu.RenderPipelineState

	// ComputePipelineState returns the compiled compute state, nil before Build or for render pipelines.
	ComputePipelineState() gpu.ComputePipelineState
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. The pipeline is not compiled until Build is called.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		colorFormat:  gpu.PixelFormatBGRA8Unorm,
		sampleCount:  1,
		cullMode:     gpu.CullModeNone,
		topology:     gpu.PrimitiveTypeTriangle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) FunctionName(stage gpu.FunctionStage) string {
	switch stage {
	case gpu.FunctionStageVertex:
		return p.vertexFunction
	case gpu.FunctionStageFragment:
		return p.fragmentFunction
	case gpu.FunctionStageKernel:
		return p.kernelFunction
	default:
		return ""
	}
}

func (p *pipeline) ColorFormat() gpu.PixelFormat {
	return p.colorFormat
}

func (p *pipeline) SampleCount() int {
	return p.sampleCount
}

func (p *pipeline) CullMode() gpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() gpu.PrimitiveType {
	return p.topology
}

func (p *pipeline) RenderPipelineState() gpu.RenderPipelineState {
	return p.renderState
}

func (p *pipeline) ComputePipelineState() gpu.ComputePipelineState {
	return p.computeState
}

func (p *pipeline) Build(device gpu.Device, lib gpu.Library) error {
	switch p.pipelineType {
	case PipelineTypeRender:
		vertex, err := lookup(lib, p.vertexFunction, gpu.FunctionStageVertex)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
		}
		fragment, err := lookup(lib, p.fragmentFunction, gpu.FunctionStageFragment)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
		}
		state, err := device.NewRenderPipelineState(gpu.RenderPipelineDescriptor{
			Label:            p.pipelineKey,
			VertexFunction:   vertex,
			FragmentFunction: fragment,
			ColorFormat:      p.colorFormat,
			SampleCount:      p.sampleCount,
		})
		if err != nil {
			return fmt.Errorf("failed to create render pipeline %q: %w", p.pipelineKey, err)
		}
		p.renderState = state
	case PipelineTypeCompute:
		kernel, err := lookup(lib, p.kernelFunction, gpu.FunctionStageKernel)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
		}
		state, err := device.NewComputePipelineState(kernel)
		if err != nil {
			return fmt.Errorf("failed to create compute pipeline %q: %w", p.pipelineKey, err)
		}
		p.computeState = state
	default:
		return fmt.Errorf("pipeline %q: unknown pipeline type %d", p.pipelineKey, p.pipelineType)
	}
	return nil
}

func lookup(lib gpu.Library, name string, stage gpu.FunctionStage) (gpu.Function, error) {
	if name == "" {
		return nil, fmt.Errorf("no %s function: %w", stage, gpu.ErrFunctionNotFound)
	}
	fn, err := lib.Function(name)
	if err != nil {
		return nil, err
	}
	if fn.Stage() != stage {
		return nil, fmt.Errorf("function %q is a %s function, want %s: %w", name, fn.Stage(), stage, gpu.ErrFunctionNotFound)
	}
	return fn, nil
}
