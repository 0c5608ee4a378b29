package webgpu

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// device is a gpu.Device backed by wgpu-native.
// Command buffers are recorded into wgpu command encoders on the caller's goroutine and
// submitted, presented and waited for on one executor goroutine per command queue.
type device struct {
	mu *sync.Mutex

	label                string
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	queueDepth           int

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	library     *library
	modules     map[string]*wgpu.ShaderModule
	sampler     *wgpu.Sampler
	placeholder *texture
	scratch     *texturePool
	tent        *computePipelineState
	queues      []*commandQueue
	released    bool
}

var _ gpu.Device = &device{}

// NewDevice creates a wgpu device. When a surface descriptor is given the adapter is chosen to be
// compatible with it and the surface can be wrapped with NewSurfaceView.
//
// Parameters:
//   - options: functional options for the device
//
// Returns:
//   - gpu.Device: the device
//   - error: error if no adapter or device could be acquired
func NewDevice(options ...DeviceBuilderOption) (gpu.Device, error) {
	d := &device{
		mu:          &sync.Mutex{},
		label:       "Halo Device",
		presentMode: wgpu.PresentModeFifo,
		queueDepth:  16,
		modules:     make(map[string]*wgpu.ShaderModule),
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(d.surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.releaseInstance()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	wd, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		d.releaseInstance()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = wd
	d.queue = wd.GetQueue()

	if err := d.init(); err != nil {
		d.Release()
		return nil, err
	}
	common.Logger().Info("webgpu device created", "label", d.label, "surface", d.surface != nil)
	return d, nil
}

// init creates the objects every pipeline shares: the library, the sampler and the placeholder texture.
func (d *device) init() error {
	lib, err := newDefaultLibrary()
	if err != nil {
		return err
	}
	d.library = lib

	d.sampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         d.label + " Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create sampler: %w", err)
	}

	// Unbound texture arguments read as transparent black. The placeholder can back both
	// sampled and storage bindings.
	d.placeholder, err = d.newTexture(gpu.TextureDescriptor{
		Label:  "placeholder",
		Format: gpu.PixelFormatRGBA8Unorm,
		Width:  1,
		Height: 1,
		Usage:  gpu.TextureUsageShaderRead | gpu.TextureUsageShaderWrite,
	})
	if err != nil {
		return err
	}
	if err := d.placeholder.ReplaceRegion(make([]byte, 4), 4); err != nil {
		return err
	}

	d.scratch = newTexturePool(d, gpu.TextureUsageShaderRead|gpu.TextureUsageShaderWrite)
	return nil
}

func (d *device) Name() string {
	return d.label
}

func (d *device) NewCommandQueue() (gpu.CommandQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, fmt.Errorf("command queue: %w", gpu.ErrReleased)
	}
	q := newCommandQueue(d, d.queueDepth)
	d.queues = append(d.queues, q)
	return q, nil
}

func (d *device) NewBuffer(data []byte, label string) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffer %q: %w", label, gpu.ErrInvalidSize)
	}
	contents := make([]byte, len(data))
	copy(contents, data)
	return &buffer{label: label, mu: &sync.Mutex{}, contents: contents}, nil
}

func (d *device) NewTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	return d.newTexture(desc)
}

func (d *device) NewTextureCache() (gpu.TextureCache, error) {
	return newTextureCache(d), nil
}

func (d *device) DefaultLibrary() (gpu.Library, error) {
	return d.library, nil
}

func (d *device) NewRenderPipelineState(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipelineState, error) {
	return newRenderPipelineState(d, desc)
}

func (d *device) NewComputePipelineState(fn gpu.Function) (gpu.ComputePipelineState, error) {
	return newComputePipelineState(d, fn)
}

func (d *device) NewImageTent(kernelWidth, kernelHeight int) (gpu.ImageKernel, error) {
	if kernelWidth <= 0 || kernelHeight <= 0 || kernelWidth%2 == 0 || kernelHeight%2 == 0 {
		return nil, fmt.Errorf("tent kernel %dx%d: %w", kernelWidth, kernelHeight, gpu.ErrInvalidSize)
	}
	return newImageTent(d, kernelWidth/2, kernelHeight/2)
}

func (d *device) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.released = true
	queues := d.queues
	d.queues = nil
	d.mu.Unlock()

	for _, q := range queues {
		q.close()
	}
	if d.scratch != nil {
		d.scratch.flush()
	}
	if d.placeholder != nil {
		d.placeholder.destroy()
	}
	if d.sampler != nil {
		d.sampler.Release()
	}
	for key, m := range d.modules {
		m.Release()
		delete(d.modules, key)
	}
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	d.releaseInstance()
}

// releaseInstance drops the adapter, surface and instance.
func (d *device) releaseInstance() {
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// shaderModule returns the compiled module for key, creating it on first use.
func (d *device) shaderModule(fn *function) (*wgpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.modules[fn.shader.Key()]; ok {
		return m, nil
	}
	m, err := d.device.CreateShaderModule(fn.shader.Module())
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %s: %w", fn.shader.Key(), err)
	}
	d.modules[fn.shader.Key()] = m
	return m, nil
}

func (d *device) newTexture(desc gpu.TextureDescriptor) (*texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}
	handle, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	view, err := handle.CreateView(nil)
	if err != nil {
		handle.Release()
		return nil, fmt.Errorf("failed to create texture view %q: %w", desc.Label, err)
	}
	return &texture{
		device: d,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
		handle: handle,
		view:   view,
		owned:  true,
	}, nil
}
