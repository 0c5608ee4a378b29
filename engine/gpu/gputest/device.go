package gputest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// DeviceOption configures a recording Device.
type DeviceOption func(d *Device)

// WithManualCompletion keeps committed buffers pending until Complete is called.
func WithManualCompletion() DeviceOption {
	return func(d *Device) {
		d.manual = true
	}
}

// WithoutFunctions removes functions from the default library so pipeline creation fails.
func WithoutFunctions(names ...string) DeviceOption {
	return func(d *Device) {
		for _, n := range names {
			delete(d.functions, n)
		}
	}
}

// WithFailingPlanes makes the texture cache fail for the given plane indices.
func WithFailingPlanes(planes ...int) DeviceOption {
	return func(d *Device) {
		d.failPlanes = append(d.failPlanes, planes...)
	}
}

// WithFailingTextureAllocation makes NewTexture return an error.
func WithFailingTextureAllocation() DeviceOption {
	return func(d *Device) {
		d.failAlloc = true
	}
}

// Device is a gpu.Device that records instead of executing.
type Device struct {
	mu *sync.Mutex

	manual     bool
	failPlanes []int
	failAlloc  bool
	functions  map[string]gpu.FunctionStage

	committed []*CommandBuffer
	pending   []*CommandBuffer
	textures  []*Texture
	buffers   []*Buffer
	flushes   int
}

var _ gpu.Device = &Device{}

// NewDevice creates a recording device. Its library holds the composite and matte functions.
func NewDevice(options ...DeviceOption) *Device {
	d := &Device{
		mu: &sync.Mutex{},
		functions: map[string]gpu.FunctionStage{
			"matteConvert":                  gpu.FunctionStageKernel,
			"compositeImageVertexTransform": gpu.FunctionStageVertex,
			"compositeImageFragmentShader":  gpu.FunctionStageFragment,
		},
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *Device) Name() string {
	return "gputest"
}

func (d *Device) NewCommandQueue() (gpu.CommandQueue, error) {
	return &commandQueue{device: d}, nil
}

func (d *Device) NewBuffer(data []byte, label string) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffer %q: %w", label, gpu.ErrInvalidSize)
	}
	b := &Buffer{label: label, contents: slices.Clone(data)}
	d.mu.Lock()
	d.buffers = append(d.buffers, b)
	d.mu.Unlock()
	return b, nil
}

func (d *Device) NewTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if d.failAlloc {
		return nil, fmt.Errorf("texture %q: out of memory", desc.Label)
	}
	return d.track(&Texture{Descriptor: desc, Plane: -1}), nil
}

func (d *Device) NewTextureCache() (gpu.TextureCache, error) {
	return &textureCache{device: d}, nil
}

func (d *Device) DefaultLibrary() (gpu.Library, error) {
	return &library{functions: d.functions}, nil
}

func (d *Device) NewRenderPipelineState(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipelineState, error) {
	if desc.VertexFunction == nil || desc.FragmentFunction == nil {
		return nil, fmt.Errorf("render pipeline %q: %w", desc.Label, gpu.ErrFunctionNotFound)
	}
	return &pipelineState{label: desc.Label}, nil
}

func (d *Device) NewComputePipelineState(fn gpu.Function) (gpu.ComputePipelineState, error) {
	if fn == nil || fn.Stage() != gpu.FunctionStageKernel {
		return nil, fmt.Errorf("compute pipeline: %w", gpu.ErrFunctionNotFound)
	}
	return &pipelineState{label: fn.Name()}, nil
}

func (d *Device) NewImageTent(kernelWidth, kernelHeight int) (gpu.ImageKernel, error) {
	if kernelWidth <= 0 || kernelHeight <= 0 || kernelWidth%2 == 0 || kernelHeight%2 == 0 {
		return nil, fmt.Errorf("tent kernel %dx%d: %w", kernelWidth, kernelHeight, gpu.ErrInvalidSize)
	}
	return &imageTent{width: kernelWidth, height: kernelHeight}, nil
}

func (d *Device) Release() {}

// Committed returns every committed command buffer in commit order.
func (d *Device) Committed() []*CommandBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.committed)
}

// Pending returns the number of committed buffers whose completion has not fired.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Complete finishes up to n pending buffers in commit order and runs their handlers on the calling goroutine.
//
// Returns:
//   - int: the number of buffers completed
func (d *Device) Complete(n int) int {
	d.mu.Lock()
	n = min(n, len(d.pending))
	done := d.pending[:n]
	d.pending = slices.Clone(d.pending[n:])
	d.mu.Unlock()
	for _, cb := range done {
		cb.complete()
	}
	return n
}

// CompleteAll finishes every pending buffer.
func (d *Device) CompleteAll() int {
	return d.Complete(d.Pending())
}

// Textures returns every texture created by the device or its texture caches.
func (d *Device) Textures() []*Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.textures)
}

// Buffers returns every buffer created by the device.
func (d *Device) Buffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.buffers)
}

// CacheFlushes counts Flush calls on the device's texture caches.
func (d *Device) CacheFlushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// LiveTextures counts created textures that were not released.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, t := range d.textures {
		if !t.Released() {
			n++
		}
	}
	return n
}

func (d *Device) track(t *Texture) *Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	t.mu = &sync.Mutex{}
	d.textures = append(d.textures, t)
	return t
}

func (d *Device) commit(cb *CommandBuffer) {
	d.mu.Lock()
	d.committed = append(d.committed, cb)
	if d.manual {
		d.pending = append(d.pending, cb)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	cb.complete()
}

type commandQueue struct {
	device *Device
	serial int
	mu     sync.Mutex
}

func (q *commandQueue) CommandBuffer() (gpu.CommandBuffer, error) {
	q.mu.Lock()
	q.serial++
	n := q.serial
	q.mu.Unlock()
	return &CommandBuffer{device: q.device, label: fmt.Sprintf("command buffer %d", n), mu: &sync.Mutex{}}, nil
}

type library struct {
	functions map[string]gpu.FunctionStage
}

func (l *library) Function(name string) (gpu.Function, error) {
	stage, ok := l.functions[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, gpu.ErrFunctionNotFound)
	}
	return &function{name: name, stage: stage}, nil
}

func (l *library) FunctionNames() []string {
	names := make([]string, 0, len(l.functions))
	for n := range l.functions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type function struct {
	name  string
	stage gpu.FunctionStage
}

func (f *function) Name() string             { return f.name }
func (f *function) Stage() gpu.FunctionStage { return f.stage }

type pipelineState struct {
	label string
}

func (p *pipelineState) Label() string                      { return p.label }
func (p *pipelineState) MaxTotalThreadsPerThreadgroup() int { return 1024 }

type textureCache struct {
	device *Device
}

func (c *textureCache) TextureFromImage(buf *gpu.PixelBuffer, format gpu.PixelFormat, plane int) (gpu.Texture, error) {
	if slices.Contains(c.device.failPlanes, plane) {
		return nil, fmt.Errorf("plane %d: conversion failed", plane)
	}
	p, err := buf.Plane(plane)
	if err != nil {
		return nil, err
	}
	if format.BytesPerPixel() != p.BytesPerPixel {
		return nil, fmt.Errorf("plane %d format %s: %w", plane, format, gpu.ErrUnsupportedFormat)
	}
	return c.device.track(&Texture{
		Descriptor: gpu.TextureDescriptor{
			Label:  fmt.Sprintf("plane %d", plane),
			Format: format,
			Width:  p.Width,
			Height: p.Height,
			Usage:  gpu.TextureUsageShaderRead,
		},
		Plane: plane,
	}), nil
}

func (c *textureCache) Flush() {
	c.device.mu.Lock()
	c.device.flushes++
	c.device.mu.Unlock()
}

type imageTent struct {
	width, height int
}

func (k *imageTent) EncodeInPlace(cmd gpu.CommandBuffer, t gpu.Texture) error {
	cb, ok := cmd.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("tent: foreign command buffer")
	}
	return cb.record(Command{Kind: KindImageKernel, Texture: t, KernelWidth: k.width, KernelHeight: k.height})
}
