package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compositeSource = `//@oxy:include plane_vertex
//@oxy:include ycbcr
//@oxy:include plane_vertex

//@oxy:argument 0 0 texture 0
@group(0) @binding(0) var lumaTexture: texture_2d<f32>;
//@oxy:argument 0 1 texture 1
@group(0) @binding(1) var chromaTexture: texture_2d<f32>;
//@oxy:argument 0 2 sampler
@group(0) @binding(2) var planeSampler: sampler;

@vertex
fn vs(in: PlaneVertex) -> PlaneFragment {
    var out: PlaneFragment;
    out.position = vec4<f32>(in.position, 0.0, 1.0);
    out.texCoord = in.texCoord;
    return out;
}

@fragment
fn fs(in: PlaneFragment) -> @location(0) vec4<f32> {
    let y = textureSample(lumaTexture, planeSampler, in.texCoord).r;
    let cbcr = textureSample(chromaTexture, planeSampler, in.texCoord).rg;
    return vec4<f32>(ycbcrToRGB(y, cbcr), 1.0);
}
`

const kernelSource = `struct Params {
    radius: u32,
    axis: u32,
    pad0: u32,
    pad1: u32,
}

//@oxy:argument 0 0 texture 0
@group(0) @binding(0) var src: texture_2d<f32>;
//@oxy:argument 0 1 texture 1
@group(0) @binding(1) var dst: texture_storage_2d<rgba8unorm, write>;
//@oxy:argument 0 2 params
@group(0) @binding(2) var<uniform> params: Params;

/* a @vertex fn commented(); entry point must be ignored */
@compute @workgroup_size(16, 8)
fn first(@builtin(global_invocation_id) gid: vec3<u32>) {
    textureStore(dst, vec2<i32>(gid.xy), textureLoad(src, vec2<i32>(gid.xy), 0));
}

@compute @workgroup_size(16, 8)
fn second(@builtin(global_invocation_id) gid: vec3<u32>) {
}
`

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Annotation
		wantErr string
	}{
		{name: "plain code", line: "let x = 1; // @oxy:include ycbcr"},
		{name: "no prefix", line: "// just a comment"},
		{
			name: "include",
			line: "  //@oxy:include ycbcr",
			want: &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArgYCbCr}, Line: 3},
		},
		{
			name: "texture argument",
			line: "//@oxy:argument 1 4 texture 3",
			want: &Annotation{Type: AnnotationTypeArgument, Args: []AnnotationArg{AnnotationArgTexture, "3"}, Line: 3, Group: ptr(1), Binding: ptr(4)},
		},
		{
			name: "sampler argument",
			line: "// @oxy:argument 0 5 sampler",
			want: &Annotation{Type: AnnotationTypeArgument, Args: []AnnotationArg{AnnotationArgSampler}, Line: 3, Group: ptr(0), Binding: ptr(5)},
		},
		{name: "empty", line: "//@oxy:", wantErr: "empty"},
		{name: "unknown type", line: "//@oxy:bogus x", wantErr: "unknown @oxy annotation type"},
		{name: "unknown snippet", line: "//@oxy:include lights", wantErr: "unknown snippet"},
		{name: "include arity", line: "//@oxy:include ycbcr plane_vertex", wantErr: "exactly one argument"},
		{name: "bad group", line: "//@oxy:argument x 0 sampler", wantErr: "invalid group"},
		{name: "negative binding", line: "//@oxy:argument 0 -1 sampler", wantErr: "invalid binding"},
		{name: "unknown kind", line: "//@oxy:argument 0 0 storage", wantErr: "unknown argument kind"},
		{name: "texture without index", line: "//@oxy:argument 0 0 texture", wantErr: "requires an index"},
		{name: "sampler with index", line: "//@oxy:argument 0 0 sampler 1", wantErr: "takes no index"},
		{name: "index out of range", line: "//@oxy:argument 0 0 texture 8", wantErr: "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 3)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "line 3")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotationTextureIndex(t *testing.T) {
	a, err := parseAnnotation("//@oxy:argument 0 2 texture 4", 1)
	require.NoError(t, err)
	i, ok := a.TextureIndex()
	require.True(t, ok)
	assert.Equal(t, 4, i)

	s, err := parseAnnotation("//@oxy:argument 0 3 sampler", 1)
	require.NoError(t, err)
	_, ok = s.TextureIndex()
	assert.False(t, ok)
}

func TestPreProcessorIncludesSnippetsOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(compositeSource)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct PlaneVertex"))
	assert.Equal(t, 1, strings.Count(out, "fn ycbcrToRGB"))
	assert.NotContains(t, out, "@oxy:include")
	assert.Contains(t, out, "//@oxy:argument 0 0 texture 0")

	decls := pp.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, 5, decls[0].Line)
	assert.Equal(t, AnnotationArgSampler, decls[2].Args[0])
}

func TestPreProcessorRejectsDuplicateBinding(t *testing.T) {
	src := "//@oxy:argument 0 1 texture 0\n//@oxy:argument 0 1 texture 1\n"
	_, err := NewPreProcessor().Process(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared on line 1")
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process(kernelSource)
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 3)

	_, err = pp.Process("fn f() {}\n")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestNewShaderReflectsRenderModule(t *testing.T) {
	s, err := NewShader("composite", compositeSource)
	require.NoError(t, err)

	assert.Equal(t, "composite", s.Key())
	assert.Equal(t, []string{"vs"}, s.EntryPoints(ShaderTypeVertex))
	assert.Equal(t, []string{"fs"}, s.EntryPoints(ShaderTypeFragment))
	assert.Empty(t, s.EntryPoints(ShaderTypeCompute))
	assert.True(t, s.HasEntryPoint(ShaderTypeFragment, "fs"))
	assert.False(t, s.HasEntryPoint(ShaderTypeVertex, "fs"))
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, s.Visibility())
	assert.Equal(t, [3]uint32{}, s.WorkgroupSize())

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, layouts[0].Attributes[0])
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, layouts[0].Attributes[1])

	groups := s.BindGroupLayoutDescriptors()
	require.Len(t, groups, 1)
	entries := groups[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[2].Sampler.Type)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[2].Visibility)

	assert.Equal(t, "chromaTexture", s.BindGroupVarName(0, 1))
	assert.Equal(t, "", s.BindGroupVarName(1, 0))
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)
}

func TestNewShaderReflectsComputeModule(t *testing.T) {
	s, err := NewShader("kernels", kernelSource)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, s.EntryPoints(ShaderTypeCompute))
	assert.Empty(t, s.EntryPoints(ShaderTypeVertex))
	assert.Equal(t, wgpu.ShaderStageCompute, s.Visibility())
	assert.Equal(t, [3]uint32{16, 8, 1}, s.WorkgroupSize())
	assert.Empty(t, s.VertexLayouts())

	entries := s.BindGroupLayoutDescriptors()[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, entries[1].StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, entries[1].StorageTexture.Access)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(16), entries[2].Buffer.MinBindingSize)
	assert.Len(t, s.Declarations(), 3)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty", "fn helper() {}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry points")

	_, err = NewShader("orphan", "//@oxy:argument 0 3 sampler\n@compute @workgroup_size(1) fn k() {}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no declaration at group 0 binding 3")

	_, err = NewShader("bad", "//@oxy:include nothing\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to pre-process")
}

func TestResolveTypeLayout(t *testing.T) {
	known := computeStructSizes(parseStructBlocks("struct P { a: vec2<f32>, b: f32, }"))

	l, ok := resolveTypeLayout("P", known)
	require.True(t, ok)
	assert.Equal(t, uint64(16), l.size)

	l, ok = resolveTypeLayout("array<vec4<f32>, 3>", known)
	require.True(t, ok)
	assert.Equal(t, uint64(48), l.size)

	_, ok = resolveTypeLayout("array<f32>", known)
	assert.False(t, ok)
}

func ptr(v int) *int {
	return &v
}
