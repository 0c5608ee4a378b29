package webgpu

import (
	"os"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/webgpu/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	lib, err := newDefaultLibrary()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"compositeImageFragmentShader",
		"compositeImageVertexTransform",
		"matteConvert",
		"tentFilter",
	}, lib.FunctionNames())

	stages := map[string]gpu.FunctionStage{
		"matteConvert":                  gpu.FunctionStageKernel,
		"tentFilter":                    gpu.FunctionStageKernel,
		"compositeImageVertexTransform": gpu.FunctionStageVertex,
		"compositeImageFragmentShader":  gpu.FunctionStageFragment,
	}
	for name, stage := range stages {
		fn, err := lib.Function(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, fn.Name())
		assert.Equal(t, stage, fn.Stage(), name)
	}

	_, err = lib.Function("missing")
	assert.ErrorIs(t, err, gpu.ErrFunctionNotFound)
}

func TestCompositeModuleArguments(t *testing.T) {
	lib, err := newDefaultLibrary()
	require.NoError(t, err)
	fs := lib.functions["compositeImageFragmentShader"]
	vs := lib.functions["compositeImageVertexTransform"]
	require.Same(t, fs.shader, vs.shader)

	decls := fs.shader.Declarations()
	require.Len(t, decls, 6)
	for i := range 5 {
		index, ok := decls[i].TextureIndex()
		require.True(t, ok)
		assert.Equal(t, i, index)
		assert.Equal(t, i, *decls[i].Binding)
	}
	assert.Equal(t, shader.AnnotationArgSampler, decls[5].Args[0])

	layouts := fs.shader.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
}

func TestKernelModules(t *testing.T) {
	lib, err := newDefaultLibrary()
	require.NoError(t, err)

	halo := lib.functions["matteConvert"].shader
	assert.Equal(t, [3]uint32{16, 16, 1}, halo.WorkgroupSize())
	entries := halo.BindGroupLayoutDescriptors()[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, entries[1].StorageTexture.Format)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, entries[2].StorageTexture.Format)

	tent := lib.functions[tentFunctionName].shader
	assert.Equal(t, [3]uint32{tentGroupSize, tentGroupSize, 1}, tent.WorkgroupSize())
	entries = tent.BindGroupLayoutDescriptors()[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(len(tentParams{}.bytes())), entries[2].Buffer.MinBindingSize)
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		name    string
		groups  gpu.Size3D
		threads gpu.Size3D
		size    [3]uint32
		want    [3]uint32
	}{
		{"halo grid on 16x16", gpu.Size3D{Width: 2, Height: 3, Depth: 1}, gpu.Size3D{Width: 32, Height: 32, Depth: 1}, [3]uint32{16, 16, 1}, [3]uint32{4, 6, 1}},
		{"partial tiles round up", gpu.Size3D{Width: 1, Height: 1, Depth: 1}, gpu.Size3D{Width: 20, Height: 10, Depth: 1}, [3]uint32{16, 16, 1}, [3]uint32{2, 1, 1}},
		{"zero depth", gpu.Size3D{Width: 1, Height: 1}, gpu.Size3D{Width: 16, Height: 16}, [3]uint32{16, 16, 1}, [3]uint32{1, 1, 1}},
		{"zero workgroup size", gpu.Size3D{Width: 3, Height: 1, Depth: 1}, gpu.Size3D{Width: 1, Height: 1, Depth: 1}, [3]uint32{}, [3]uint32{3, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workgroupCount(tt.groups, tt.threads, tt.size))
		})
	}
}

func TestFormatMapping(t *testing.T) {
	formats := map[gpu.PixelFormat]wgpu.TextureFormat{
		gpu.PixelFormatR8Unorm:    wgpu.TextureFormatR8Unorm,
		gpu.PixelFormatRG8Unorm:   wgpu.TextureFormatRG8Unorm,
		gpu.PixelFormatRGBA8Unorm: wgpu.TextureFormatRGBA8Unorm,
		gpu.PixelFormatBGRA8Unorm: wgpu.TextureFormatBGRA8Unorm,
	}
	for in, want := range formats {
		got, err := textureFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := textureFormat(gpu.PixelFormatInvalid)
	assert.ErrorIs(t, err, gpu.ErrUnsupportedFormat)

	usage := textureUsage(gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite)
	assert.NotZero(t, usage&wgpu.TextureUsageTextureBinding)
	assert.NotZero(t, usage&wgpu.TextureUsageStorageBinding)
	assert.Zero(t, usage&wgpu.TextureUsageRenderAttachment)

	assert.Equal(t, wgpu.CullModeNone, cullMode(gpu.CullModeNone))
	assert.Equal(t, wgpu.CullModeBack, cullMode(gpu.CullModeBack))
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, primitiveTopology(gpu.PrimitiveTypeTriangleStrip))
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, primitiveTopology(gpu.PrimitiveTypeTriangle))
	assert.Equal(t, wgpu.LoadOpLoad, loadOp(gpu.LoadActionLoad))
	assert.Equal(t, wgpu.LoadOpClear, loadOp(gpu.LoadActionDontCare))
}

func TestBufferSnapshot(t *testing.T) {
	d := &device{}
	b, err := d.NewBuffer([]byte{1, 2, 3, 4}, "quad")
	require.NoError(t, err)
	wb := b.(*buffer)

	snap := wb.snapshot()
	b.Contents()[0] = 9
	b.DidModify()
	assert.Equal(t, byte(1), snap[0])
	assert.Equal(t, byte(9), wb.snapshot()[0])

	_, err = d.NewBuffer(nil, "empty")
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}

// newHardwareDevice returns a headless device. Set OXY_WEBGPU_TESTS=1 on machines with a usable adapter.
func newHardwareDevice(t *testing.T) gpu.Device {
	t.Helper()
	if os.Getenv("OXY_WEBGPU_TESTS") == "" {
		t.Skip("set OXY_WEBGPU_TESTS=1 to run against a wgpu adapter")
	}
	d, err := NewDevice(WithLabel("test device"))
	require.NoError(t, err)
	t.Cleanup(d.Release)
	return d
}

func TestHaloAndTentOnDevice(t *testing.T) {
	d := newHardwareDevice(t)
	lib, err := d.DefaultLibrary()
	require.NoError(t, err)
	fn, err := lib.Function("matteConvert")
	require.NoError(t, err)
	convert, err := d.NewComputePipelineState(fn)
	require.NoError(t, err)

	matte, err := d.NewTexture(gpu.TextureDescriptor{Label: "matte", Format: gpu.PixelFormatR8Unorm, Width: 40, Height: 20, Usage: gpu.TextureUsageShaderRead})
	require.NoError(t, err)
	defer matte.Release()
	data := make([]byte, 40*20)
	for i := range data {
		data[i] = 128
	}
	require.NoError(t, matte.ReplaceRegion(data, 40))

	halo := gpu.TextureDescriptor{Format: gpu.PixelFormatRGBA8Unorm, Width: 40, Height: 20, Usage: gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite}
	halo.Label = "white"
	white, err := d.NewTexture(halo)
	require.NoError(t, err)
	defer white.Release()
	halo.Label = "yellow"
	yellow, err := d.NewTexture(halo)
	require.NoError(t, err)
	defer yellow.Release()

	queue, err := d.NewCommandQueue()
	require.NoError(t, err)
	cmd, err := queue.CommandBuffer()
	require.NoError(t, err)

	enc, err := cmd.ComputeCommandEncoder()
	require.NoError(t, err)
	enc.SetComputePipelineState(convert)
	enc.SetTexture(matte, 0)
	enc.SetTexture(white, 1)
	enc.SetTexture(yellow, 2)
	enc.DispatchThreadgroups(gpu.Size3D{Width: 2, Height: 1, Depth: 1}, gpu.Size3D{Width: 32, Height: 32, Depth: 1})
	enc.EndEncoding()

	tent, err := d.NewImageTent(61, 61)
	require.NoError(t, err)
	require.NoError(t, tent.EncodeInPlace(cmd, white))
	require.NoError(t, tent.EncodeInPlace(cmd, yellow))

	done := make(chan struct{})
	cmd.AddCompletedHandler(func(gpu.CommandBuffer) { close(done) })
	cmd.Commit()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("command buffer did not complete")
	}
	require.NoError(t, cmd.Err())
	assert.Equal(t, gpu.CommandBufferStatusCompleted, cmd.Status())
}

func TestTentRejectsNonStorageTexture(t *testing.T) {
	d := newHardwareDevice(t)
	queue, err := d.NewCommandQueue()
	require.NoError(t, err)
	cmd, err := queue.CommandBuffer()
	require.NoError(t, err)

	tex, err := d.NewTexture(gpu.TextureDescriptor{Label: "sampled", Format: gpu.PixelFormatRGBA8Unorm, Width: 4, Height: 4, Usage: gpu.TextureUsageShaderRead})
	require.NoError(t, err)
	defer tex.Release()

	tent, err := d.NewImageTent(3, 3)
	require.NoError(t, err)
	assert.Error(t, tent.EncodeInPlace(cmd, tex))

	_, err = d.NewImageTent(4, 3)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}
