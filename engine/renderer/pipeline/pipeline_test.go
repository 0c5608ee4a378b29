package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("composite", PipelineTypeRender)
	assert.Equal(t, PipelineTypeRender, p.Type())
	assert.Equal(t, "composite", p.PipelineKey())
	assert.Equal(t, gpu.PixelFormatBGRA8Unorm, p.ColorFormat())
	assert.Equal(t, 1, p.SampleCount())
	assert.Equal(t, gpu.CullModeNone, p.CullMode())
	assert.Nil(t, p.RenderPipelineState())
}

func TestBuildRenderPipeline(t *testing.T) {
	device := gputest.NewDevice()
	lib, err := device.DefaultLibrary()
	require.NoError(t, err)

	p := NewPipeline("composite", PipelineTypeRender,
		WithVertexFunction("compositeImageVertexTransform"),
		WithFragmentFunction("compositeImageFragmentShader"),
		WithTopology(gpu.PrimitiveTypeTriangleStrip),
	)
	require.NoError(t, p.Build(device, lib))
	require.NotNil(t, p.RenderPipelineState())
	assert.Equal(t, "composite", p.RenderPipelineState().Label())
	assert.Nil(t, p.ComputePipelineState())
	assert.Equal(t, "compositeImageFragmentShader", p.FunctionName(gpu.FunctionStageFragment))
	assert.Equal(t, gpu.PrimitiveTypeTriangleStrip, p.Topology())
}

func TestBuildComputePipeline(t *testing.T) {
	device := gputest.NewDevice()
	lib, err := device.DefaultLibrary()
	require.NoError(t, err)

	p := NewPipeline("halo", PipelineTypeCompute, WithKernelFunction("matteConvert"))
	require.NoError(t, p.Build(device, lib))
	require.NotNil(t, p.ComputePipelineState())
	assert.Equal(t, 1024, p.ComputePipelineState().MaxTotalThreadsPerThreadgroup())
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name     string
		device   *gputest.Device
		pipeline Pipeline
	}{
		{
			name:     "missing kernel",
			device:   gputest.NewDevice(gputest.WithoutFunctions("matteConvert")),
			pipeline: NewPipeline("halo", PipelineTypeCompute, WithKernelFunction("matteConvert")),
		},
		{
			name:     "unset fragment",
			device:   gputest.NewDevice(),
			pipeline: NewPipeline("composite", PipelineTypeRender, WithVertexFunction("compositeImageVertexTransform")),
		},
		{
			name:   "wrong stage",
			device: gputest.NewDevice(),
			pipeline: NewPipeline("composite", PipelineTypeRender,
				WithVertexFunction("compositeImageFragmentShader"),
				WithFragmentFunction("compositeImageFragmentShader"),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := tt.device.DefaultLibrary()
			require.NoError(t, err)
			err = tt.pipeline.Build(tt.device, lib)
			assert.ErrorIs(t, err, gpu.ErrFunctionNotFound)
		})
	}
}
