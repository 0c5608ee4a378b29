package webgpu

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/webgpu/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const maxTextureArguments = 8

// textureArguments is the texture argument table of a kernel or fragment function.
type textureArguments [maxTextureArguments]*texture

// argumentLayout is bind group 0 of a module together with the argument each binding reads.
// Modules declare every binding with an @oxy:argument annotation.
type argumentLayout struct {
	label     string
	layout    *wgpu.BindGroupLayout
	arguments []shader.Annotation
}

func newArgumentLayout(d *device, s shader.Shader) (*argumentLayout, error) {
	descriptors := s.BindGroupLayoutDescriptors()
	for g := range descriptors {
		if g != 0 {
			return nil, fmt.Errorf("module %s: bind group %d: only group 0 is supported", s.Key(), g)
		}
	}

	declared := make(map[int]shader.Annotation)
	for _, a := range s.Declarations() {
		if *a.Group != 0 {
			return nil, fmt.Errorf("module %s: line %d: only group 0 is supported", s.Key(), a.Line)
		}
		declared[*a.Binding] = a
	}

	desc := descriptors[0]
	args := make([]shader.Annotation, 0, len(desc.Entries))
	for _, entry := range desc.Entries {
		a, ok := declared[int(entry.Binding)]
		if !ok {
			return nil, fmt.Errorf("module %s: binding %d (%s) has no @oxy:argument annotation", s.Key(), entry.Binding, s.BindGroupVarName(0, int(entry.Binding)))
		}
		args = append(args, a)
	}
	sort.Slice(args, func(i, j int) bool {
		return *args[i].Binding < *args[j].Binding
	})

	al := &argumentLayout{label: s.Key(), arguments: args}
	if len(desc.Entries) == 0 {
		return al, nil
	}
	desc.Label = s.Key() + " Bind Group Layout"
	layout, err := d.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout for module %s: %w", s.Key(), err)
	}
	al.layout = layout
	return al, nil
}

// bindGroupLayouts returns the layouts for a pipeline layout descriptor.
func (a *argumentLayout) bindGroupLayouts() []*wgpu.BindGroupLayout {
	if a.layout == nil {
		return nil
	}
	return []*wgpu.BindGroupLayout{a.layout}
}

// bindGroup builds group 0 from the argument table. Unbound textures read the placeholder.
// It returns nil when the module has no bindings.
func (a *argumentLayout) bindGroup(d *device, textures *textureArguments, params *wgpu.Buffer) (*wgpu.BindGroup, error) {
	if a.layout == nil {
		return nil, nil
	}
	entries := make([]wgpu.BindGroupEntry, len(a.arguments))
	for i, arg := range a.arguments {
		entry := wgpu.BindGroupEntry{Binding: uint32(*arg.Binding)}
		switch arg.Args[0] {
		case shader.AnnotationArgTexture:
			index, _ := arg.TextureIndex()
			t := textures[index]
			if t == nil {
				t = d.placeholder
			}
			entry.TextureView = t.view
		case shader.AnnotationArgSampler:
			entry.Sampler = d.sampler
		case shader.AnnotationArgParams:
			if params == nil {
				return nil, fmt.Errorf("%s: binding %d: no params buffer", a.label, *arg.Binding)
			}
			entry.Buffer = params
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		}
		entries[i] = entry
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   a.label + " Bind Group",
		Layout:  a.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for %s: %w", a.label, err)
	}
	return bg, nil
}

func (a *argumentLayout) release() {
	if a.layout != nil {
		a.layout.Release()
	}
}
