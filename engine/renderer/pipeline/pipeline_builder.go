package pipeline

import "github.com/Carmen-Shannon/oxy-halo/engine/gpu"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexFunction sets the vertex function name for this pipeline.
//
// Parameters:
//   - name: the library name of the vertex function
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex function for this pipeline
func WithVertexFunction(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexFunction = name
	}
}

// WithFragmentFunction sets the fragment function name for this pipeline.
//
// Parameters:
//   - name: the library name of the fragment function
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment function for this pipeline
func WithFragmentFunction(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentFunction = name
	}
}

// WithKernelFunction sets the compute kernel name for this pipeline.
//
// Parameters:
//   - name: the library name of the kernel function
//
// Returns:
//   - PipelineBuilderOption: a function that sets the kernel function for this pipeline
func WithKernelFunction(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.kernelFunction = name
	}
}

// WithColorFormat sets the color attachment format of a render pipeline.
//
// Parameters:
//   - format: the attachment format, it must match the drawable format
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color format for this pipeline
func WithColorFormat(format gpu.PixelFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorFormat = format
	}
}

// WithSampleCount sets the rasterization sample count of a render pipeline.
//
// Parameters:
//   - count: samples per pixel
//
// Returns:
//   - PipelineBuilderOption: a function that sets the sample count for this pipeline
func WithSampleCount(count int) PipelineBuilderOption {
	return func(p *pipeline) {
		p.sampleCount = count
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline (e.g., gpu.CullModeNone, gpu.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode gpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology (e.g., gpu.PrimitiveTypeTriangleStrip)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology gpu.PrimitiveType) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}
