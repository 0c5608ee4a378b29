package webgpu

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/webgpu/shader"
)

//go:embed assets/halo.wgsl
var haloSource string

//go:embed assets/tent.wgsl
var tentSource string

//go:embed assets/composite.wgsl
var compositeSource string

// tentFunctionName is the entry point the image tent filter dispatches.
const tentFunctionName = "tentFilter"

var builtinModules = []struct {
	key    string
	source string
}{
	{"halo", haloSource},
	{"tent", tentSource},
	{"composite", compositeSource},
}

// function is one entry point of a reflected WGSL module.
type function struct {
	name   string
	stage  gpu.FunctionStage
	shader shader.Shader
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

func newDefaultLibrary() (*library, error) {
	l := &library{functions: make(map[string]*function)}
	for _, m := range builtinModules {
		s, err := shader.NewShader(m.key, m.source)
		if err != nil {
			return nil, err
		}
		if err := l.add(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// add registers every entry point of s. Entry point names are unique across the library.
func (l *library) add(s shader.Shader) error {
	stages := map[shader.ShaderType]gpu.FunctionStage{
		shader.ShaderTypeVertex:   gpu.FunctionStageVertex,
		shader.ShaderTypeFragment: gpu.FunctionStageFragment,
		shader.ShaderTypeCompute:  gpu.FunctionStageKernel,
	}
	for t, stage := range stages {
		for _, name := range s.EntryPoints(t) {
			if prev, ok := l.functions[name]; ok {
				return fmt.Errorf("function %q of module %s already defined by module %s", name, s.Key(), prev.shader.Key())
			}
			l.functions[name] = &function{name: name, stage: stage, shader: s}
		}
	}
	return nil
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
