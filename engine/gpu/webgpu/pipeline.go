package webgpu

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxLogicalThreadgroup is the largest threadgroup a dispatch may describe. Dispatches are
// re-tiled onto the module's own workgroup size, so this is not a hardware limit.
const maxLogicalThreadgroup = 1024

type computePipelineState struct {
	label         string
	args          *argumentLayout
	layout        *wgpu.PipelineLayout
	pipeline      *wgpu.ComputePipeline
	workgroupSize [3]uint32
}

var _ gpu.ComputePipelineState = &computePipelineState{}

func newComputePipelineState(d *device, fn gpu.Function) (*computePipelineState, error) {
	kf, ok := fn.(*function)
	if !ok || kf.stage != gpu.FunctionStageKernel {
		return nil, fmt.Errorf("compute pipeline: %w", gpu.ErrFunctionNotFound)
	}
	module, err := d.shaderModule(kf)
	if err != nil {
		return nil, err
	}
	args, err := newArgumentLayout(d, kf.shader)
	if err != nil {
		return nil, err
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            kf.name,
		BindGroupLayouts: args.bindGroupLayouts(),
	})
	if err != nil {
		args.release()
		return nil, fmt.Errorf("failed to create pipeline layout for %s: %w", kf.name, err)
	}
	created, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  kf.name + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: kf.name,
		},
	})
	if err != nil {
		layout.Release()
		args.release()
		return nil, fmt.Errorf("failed to create compute pipeline %s: %w", kf.name, err)
	}
	return &computePipelineState{
		label:         kf.name,
		args:          args,
		layout:        layout,
		pipeline:      created,
		workgroupSize: kf.shader.WorkgroupSize(),
	}, nil
}

func (s *computePipelineState) Label() string {
	return s.label
}

func (s *computePipelineState) MaxTotalThreadsPerThreadgroup() int {
	return maxLogicalThreadgroup
}

// renderVariant is the fixed-function state baked into a wgpu render pipeline.
type renderVariant struct {
	cullMode  gpu.CullMode
	primitive gpu.PrimitiveType
}

// renderPipelineState compiles one wgpu pipeline per cull mode and topology the encoders ask for.
type renderPipelineState struct {
	device        *device
	label         string
	vertex        *function
	fragment      *function
	module        *wgpu.ShaderModule
	format        wgpu.TextureFormat
	args          *argumentLayout
	layout        *wgpu.PipelineLayout
	vertexBuffers []wgpu.VertexBufferLayout

	mu       *sync.Mutex
	variants map[renderVariant]*wgpu.RenderPipeline
}

var _ gpu.RenderPipelineState = &renderPipelineState{}

func newRenderPipelineState(d *device, desc gpu.RenderPipelineDescriptor) (*renderPipelineState, error) {
	vf, ok := desc.VertexFunction.(*function)
	if !ok || vf.stage != gpu.FunctionStageVertex {
		return nil, fmt.Errorf("render pipeline %q: vertex function: %w", desc.Label, gpu.ErrFunctionNotFound)
	}
	ff, ok := desc.FragmentFunction.(*function)
	if !ok || ff.stage != gpu.FunctionStageFragment {
		return nil, fmt.Errorf("render pipeline %q: fragment function: %w", desc.Label, gpu.ErrFunctionNotFound)
	}
	if vf.shader != ff.shader {
		return nil, fmt.Errorf("render pipeline %q: %s and %s must come from one module", desc.Label, vf.name, ff.name)
	}
	switch desc.ColorFormat {
	case gpu.PixelFormatBGRA8Unorm, gpu.PixelFormatRGBA8Unorm:
	default:
		return nil, fmt.Errorf("render pipeline %q color format %s: %w", desc.Label, desc.ColorFormat, gpu.ErrUnsupportedFormat)
	}
	if desc.SampleCount > 1 {
		return nil, fmt.Errorf("render pipeline %q: multisampling is not supported", desc.Label)
	}
	format, err := textureFormat(desc.ColorFormat)
	if err != nil {
		return nil, err
	}

	module, err := d.shaderModule(vf)
	if err != nil {
		return nil, err
	}
	args, err := newArgumentLayout(d, vf.shader)
	if err != nil {
		return nil, err
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: args.bindGroupLayouts(),
	})
	if err != nil {
		args.release()
		return nil, fmt.Errorf("failed to create pipeline layout for %q: %w", desc.Label, err)
	}
	return &renderPipelineState{
		device:        d,
		label:         desc.Label,
		vertex:        vf,
		fragment:      ff,
		module:        module,
		format:        format,
		args:          args,
		layout:        layout,
		vertexBuffers: vf.shader.VertexLayouts(),
		mu:            &sync.Mutex{},
		variants:      make(map[renderVariant]*wgpu.RenderPipeline),
	}, nil
}

func (s *renderPipelineState) Label() string {
	return s.label
}

// variant returns the pipeline for v, compiling it on first use.
func (s *renderPipelineState) variant(v renderVariant) (*wgpu.RenderPipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.variants[v]; ok {
		return p, nil
	}
	created, err := s.device.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  s.label + " Render Pipeline",
		Layout: s.layout,
		Vertex: wgpu.VertexState{
			Module:     s.module,
			EntryPoint: s.vertex.name,
			Buffers:    s.vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     s.module,
			EntryPoint: s.fragment.name,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    s.format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopology(v.primitive),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(v.cullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", s.label, err)
	}
	s.variants[v] = created
	return created, nil
}
