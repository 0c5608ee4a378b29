package shader

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage of an entry point.
type ShaderType int

const (
	// ShaderTypeCompute is a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment is a @fragment entry point.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("shadertype(%d)", int(t))
	}
}

// stage returns the wgpu visibility flag of the shader type.
func (t ShaderType) stage() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// Shader is a pre-processed WGSL module with the reflection data needed to build pipelines
// and bind groups: entry points per stage, bind group layouts, vertex layouts, the compute
// workgroup size and the argument declarations.
type Shader interface {
	// Key returns the module's unique key, also used as its label.
	Key() string

	// Source returns the pre-processed WGSL source.
	Source() string

	// EntryPoints returns the entry point names of a stage in source order.
	//
	// Parameters:
	//   - t: the stage
	//
	// Returns:
	//   - []string: the entry points, nil if the module has none for t
	EntryPoints(t ShaderType) []string

	// HasEntryPoint reports whether name is an entry point of stage t.
	HasEntryPoint(t ShaderType, name string) bool

	// Visibility returns the union of the stages the module has entry points for.
	// Every binding of the module is visible to all of them.
	Visibility() wgpu.ShaderStage

	// BindGroupLayoutDescriptors returns the parsed layouts keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at group and binding, or "".
	BindGroupVarName(group, binding int) string

	// VertexLayouts returns one layout per vertex input struct in source order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// WorkgroupSize returns the compute workgroup size, [0, 0, 0] for modules without a compute entry point.
	WorkgroupSize() [3]uint32

	// Module returns the descriptor used to create the wgpu shader module.
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the @oxy:argument annotations of the module.
	Declarations() []Annotation
}

type shader struct {
	key                        string
	source                     string
	entryPoints                map[ShaderType][]string
	visibility                 wgpu.ShaderStage
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
	workGroupSize              [3]uint32
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL module.
//
// Parameters:
//   - key: unique module key
//   - source: raw WGSL source with optional @oxy: annotations
//
// Returns:
//   - Shader: the reflected module
//   - error: error if pre-processing fails, the module has no entry point, or an
//     argument annotation names a binding the source does not declare
func NewShader(key string, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to pre-process: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		entryPoints:  parseEntryPoints(processed),
		declarations: pp.Declarations(),
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: processed,
			},
		},
	}
	if len(s.entryPoints) == 0 {
		return nil, fmt.Errorf("shader %s: no entry points", key)
	}
	for t := range s.entryPoints {
		s.visibility |= t.stage()
	}
	if len(s.entryPoints[ShaderTypeCompute]) > 0 {
		s.workGroupSize = parseWorkgroupSize(processed)
	}
	if len(s.entryPoints[ShaderTypeVertex]) > 0 {
		s.vertexLayouts = parseVertexLayouts(processed)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, s.visibility)

	for _, d := range s.declarations {
		if s.BindGroupVarName(*d.Group, *d.Binding) == "" {
			return nil, fmt.Errorf("shader %s: line %d: no declaration at group %d binding %d", key, d.Line, *d.Group, *d.Binding)
		}
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoints(t ShaderType) []string {
	return s.entryPoints[t]
}

func (s *shader) HasEntryPoint(t ShaderType, name string) bool {
	return slices.Contains(s.entryPoints[t], name)
}

func (s *shader) Visibility() wgpu.ShaderStage {
	return s.visibility
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
