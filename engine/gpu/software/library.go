package software

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

const maxTextureArguments = 8

// textureArguments is the texture argument table of a kernel or fragment function.
type textureArguments [maxTextureArguments]*texture

// kernelFunc runs one compute thread at grid position (x, y).
type kernelFunc func(x, y int, textures *textureArguments)

// vertexOutput is what a vertex function hands to the rasterizer.
type vertexOutput struct {
	position [4]float32
	texCoord [2]float32
}

// vertexFunc transforms vertex vid read from the bound vertex buffers.
type vertexFunc func(vid int, buffers [][]float32) vertexOutput

// fragmentFunc shades one fragment and returns a normalized RGBA color.
type fragmentFunc func(texCoord [2]float32, textures *textureArguments) [4]float32

type function struct {
	name     string
	stage    gpu.FunctionStage
	kernel   kernelFunc
	vertex   vertexFunc
	fragment fragmentFunc
}

var _ gpu.Function = &function{}

func (f *function) Name() string {
	return f.name
}

func (f *function) Stage() gpu.FunctionStage {
	return f.stage
}

type library struct {
	functions map[string]*function
}

var _ gpu.Library = &library{}

func newDefaultLibrary() *library {
	l := &library{functions: make(map[string]*function)}
	l.add(&function{name: "matteConvert", stage: gpu.FunctionStageKernel, kernel: matteConvert})
	l.add(&function{name: "compositeImageVertexTransform", stage: gpu.FunctionStageVertex, vertex: compositeImageVertexTransform})
	l.add(&function{name: "compositeImageFragmentShader", stage: gpu.FunctionStageFragment, fragment: compositeImageFragmentShader})
	return l
}

func (l *library) add(f *function) {
	l.functions[f.name] = f
}

func (l *library) Function(name string) (gpu.Function, error) {
	f, ok := l.functions[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, gpu.ErrFunctionNotFound)
	}
	return f, nil
}

func (l *library) FunctionNames() []string {
	names := make([]string, 0, len(l.functions))
	for name := range l.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type renderPipelineState struct {
	label       string
	vertex      vertexFunc
	fragment    fragmentFunc
	colorFormat gpu.PixelFormat
}

func (s *renderPipelineState) Label() string {
	return s.label
}

type computePipelineState struct {
	label  string
	kernel kernelFunc
}

func (s *computePipelineState) Label() string {
	return s.label
}

func (s *computePipelineState) MaxTotalThreadsPerThreadgroup() int {
	return 1024
}
