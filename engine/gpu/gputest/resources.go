package gputest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// Texture is a recorded texture. It holds no pixel data.
type Texture struct {
	Descriptor gpu.TextureDescriptor
	// Plane is the pixel buffer plane the texture came from, or -1.
	Plane int

	mu       *sync.Mutex
	released int
	replaced int
}

var _ gpu.Texture = &Texture{}

func (t *Texture) Label() string           { return t.Descriptor.Label }
func (t *Texture) Width() int              { return t.Descriptor.Width }
func (t *Texture) Height() int             { return t.Descriptor.Height }
func (t *Texture) Format() gpu.PixelFormat { return t.Descriptor.Format }
func (t *Texture) Usage() gpu.TextureUsage { return t.Descriptor.Usage }

func (t *Texture) ReplaceRegion(data []byte, bytesPerRow int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released > 0 {
		return fmt.Errorf("texture %q: %w", t.Descriptor.Label, gpu.ErrReleased)
	}
	t.replaced++
	return nil
}

func (t *Texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released++
}

// Released reports whether Release was called at least once.
func (t *Texture) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released > 0
}

// ReleaseCount returns how many times Release was called.
func (t *Texture) ReleaseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// Buffer is a recorded vertex buffer.
type Buffer struct {
	label    string
	contents []byte
	modified int
	released bool
}

var _ gpu.Buffer = &Buffer{}

func (b *Buffer) Label() string    { return b.label }
func (b *Buffer) Len() int         { return len(b.contents) }
func (b *Buffer) Contents() []byte { return b.contents }
func (b *Buffer) DidModify()       { b.modified++ }
func (b *Buffer) Release()          { b.released = true }

// Released reports whether Release was called.
func (b *Buffer) Released() bool {
	return b.released
}

// Floats returns the contents as float32 values.
func (b *Buffer) Floats() []float32 {
	return slices.Clone(common.BytesToFloat32s(b.contents))
}

// Modifications returns how many times DidModify was called.
func (b *Buffer) Modifications() int {
	return b.modified
}

// CommandKind identifies a recorded command.
type CommandKind int

const (
	KindComputePass CommandKind = iota
	KindSetComputePipeline
	KindSetTexture
	KindDispatch
	KindRenderPass
	KindSetRenderPipeline
	KindSetCullMode
	KindSetVertexBuffer
	KindSetFragmentTexture
	KindDraw
	KindEndEncoding
	KindImageKernel
	KindPresent
)

// Command is one recorded call. Only the fields relevant to Kind are set.
type Command struct {
	Kind                  CommandKind
	Index                 int
	Texture               gpu.Texture
	Pipeline              string
	CullMode              gpu.CullMode
	Primitive             gpu.PrimitiveType
	VertexStart           int
	VertexCount           int
	Threadgroups          gpu.Size3D
	ThreadsPerThreadgroup gpu.Size3D
	KernelWidth           int
	KernelHeight          int
	VertexData            []float32
}

// CommandBuffer records commands and completes when its Device says so.
type CommandBuffer struct {
	device *Device
	label  string

	mu       *sync.Mutex
	commands []Command
	handlers []func(gpu.CommandBuffer)
	status   gpu.CommandBufferStatus
	encoding bool
}

var _ gpu.CommandBuffer = &CommandBuffer{}

func (cb *CommandBuffer) Label() string {
	return cb.label
}

func (cb *CommandBuffer) AddCompletedHandler(handler func(gpu.CommandBuffer)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.handlers = append(cb.handlers, handler)
}

func (cb *CommandBuffer) ComputeCommandEncoder() (gpu.ComputeCommandEncoder, error) {
	if err := cb.begin(Command{Kind: KindComputePass}); err != nil {
		return nil, err
	}
	return &encoder{cb: cb}, nil
}

func (cb *CommandBuffer) RenderCommandEncoder(desc *gpu.RenderPassDescriptor) (gpu.RenderCommandEncoder, error) {
	if desc == nil || desc.ColorTexture == nil {
		return nil, fmt.Errorf("render encoder: no color attachment")
	}
	if err := cb.begin(Command{Kind: KindRenderPass, Texture: desc.ColorTexture}); err != nil {
		return nil, err
	}
	return &encoder{cb: cb}, nil
}

func (cb *CommandBuffer) Present(d gpu.Drawable) {
	_ = cb.record(Command{Kind: KindPresent, Texture: d.Texture()})
	if rd, ok := d.(*Drawable); ok {
		rd.view.detach()
	}
}

func (cb *CommandBuffer) Commit() {
	cb.mu.Lock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		cb.mu.Unlock()
		return
	}
	cb.status = gpu.CommandBufferStatusCommitted
	cb.mu.Unlock()
	cb.device.commit(cb)
}

func (cb *CommandBuffer) Status() gpu.CommandBufferStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.status
}

func (cb *CommandBuffer) Err() error {
	return nil
}

// Commands returns the recorded commands in encode order.
func (cb *CommandBuffer) Commands() []Command {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return slices.Clone(cb.commands)
}

// Count returns how many commands of kind were recorded.
func (cb *CommandBuffer) Count(kind CommandKind) int {
	n := 0
	for _, c := range cb.Commands() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the recorded commands of kind.
func (cb *CommandBuffer) Filter(kind CommandKind) []Command {
	var out []Command
	for _, c := range cb.Commands() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (cb *CommandBuffer) begin(c Command) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		return fmt.Errorf("%s: %w", cb.label, gpu.ErrCommitted)
	}
	if cb.encoding {
		return fmt.Errorf("%s: previous encoder was not ended", cb.label)
	}
	cb.encoding = true
	cb.commands = append(cb.commands, c)
	return nil
}

func (cb *CommandBuffer) record(c Command) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		return fmt.Errorf("%s: %w", cb.label, gpu.ErrCommitted)
	}
	if c.Kind == KindEndEncoding {
		cb.encoding = false
	}
	cb.commands = append(cb.commands, c)
	return nil
}

func (cb *CommandBuffer) complete() {
	cb.mu.Lock()
	cb.status = gpu.CommandBufferStatusCompleted
	handlers := cb.handlers
	cb.handlers = nil
	cb.mu.Unlock()
	for _, h := range handlers {
		h(cb)
	}
}

type encoder struct {
	cb *CommandBuffer
}

func (e *encoder) SetComputePipelineState(state gpu.ComputePipelineState) {
	_ = e.cb.record(Command{Kind: KindSetComputePipeline, Pipeline: state.Label()})
}

func (e *encoder) SetTexture(t gpu.Texture, index int) {
	_ = e.cb.record(Command{Kind: KindSetTexture, Texture: t, Index: index})
}

func (e *encoder) DispatchThreadgroups(groups, threads gpu.Size3D) {
	_ = e.cb.record(Command{Kind: KindDispatch, Threadgroups: groups, ThreadsPerThreadgroup: threads})
}

func (e *encoder) SetRenderPipelineState(state gpu.RenderPipelineState) {
	_ = e.cb.record(Command{Kind: KindSetRenderPipeline, Pipeline: state.Label()})
}

func (e *encoder) SetCullMode(mode gpu.CullMode) {
	_ = e.cb.record(Command{Kind: KindSetCullMode, CullMode: mode})
}

func (e *encoder) SetVertexBuffer(b gpu.Buffer, offset, index int) {
	data := slices.Clone(common.BytesToFloat32s(b.Contents()[offset:]))
	_ = e.cb.record(Command{Kind: KindSetVertexBuffer, Index: index, VertexData: data})
}

func (e *encoder) SetFragmentTexture(t gpu.Texture, index int) {
	_ = e.cb.record(Command{Kind: KindSetFragmentTexture, Texture: t, Index: index})
}

func (e *encoder) DrawPrimitives(primitive gpu.PrimitiveType, vertexStart, vertexCount int) {
	_ = e.cb.record(Command{Kind: KindDraw, Primitive: primitive, VertexStart: vertexStart, VertexCount: vertexCount})
}

func (e *encoder) EndEncoding() {
	_ = e.cb.record(Command{Kind: KindEndEncoding})
}

// View is a recording gpu.View. Setting Unavailable makes it hand out no render target.
type View struct {
	mu          sync.Mutex
	Size        common.Size
	Unavailable bool
	device      *Device
	current     *Drawable
}

var _ gpu.View = &View{}

// NewView creates a view of the given size whose drawables are tracked by d.
func NewView(d *Device, size common.Size) *View {
	return &View{Size: size, device: d}
}

func (v *View) acquire() *Drawable {
	if v.Unavailable {
		return nil
	}
	if v.current == nil {
		v.current = &Drawable{view: v, texture: v.device.track(&Texture{
			Descriptor: gpu.TextureDescriptor{
				Label:  "drawable",
				Format: gpu.PixelFormatBGRA8Unorm,
				Width:  v.Size.Width,
				Height: v.Size.Height,
				Usage:  gpu.TextureUsageRenderTarget,
			},
			Plane: -1,
		})}
	}
	return v.current
}

func (v *View) CurrentRenderPassDescriptor() *gpu.RenderPassDescriptor {
	v.mu.Lock()
	defer v.mu.Unlock()
	d := v.acquire()
	if d == nil {
		return nil
	}
	return &gpu.RenderPassDescriptor{ColorTexture: d.texture, LoadAction: gpu.LoadActionClear}
}

func (v *View) CurrentDrawable() gpu.Drawable {
	v.mu.Lock()
	defer v.mu.Unlock()
	d := v.acquire()
	if d == nil {
		return nil
	}
	return d
}

func (v *View) DrawableSize() common.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Size
}

func (v *View) detach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = nil
}

// Drawable is a recorded drawable.
type Drawable struct {
	view    *View
	texture *Texture
}

func (d *Drawable) Texture() gpu.Texture { return d.texture }
func (d *Drawable) Present()             {}
