package software

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// device is a CPU implementation of gpu.Device.
// Kernels run on a dynamic worker pool split into row bands; each command queue
// executes its buffers in commit order on a dedicated goroutine.
type device struct {
	mu *sync.Mutex

	name          string
	workers       int
	taskQueueSize int
	idleTimeout   time.Duration
	queueDepth    int

	pool     worker.DynamicWorkerPool
	queues   []*commandQueue
	library  *library
	released bool
}

var _ gpu.Device = &device{}

// NewDevice creates a software device.
//
// Parameters:
//   - options: functional options for the device
//
// Returns:
//   - gpu.Device: the device
func NewDevice(options ...DeviceBuilderOption) gpu.Device {
	d := &device{
		mu:            &sync.Mutex{},
		name:          "software",
		workers:       runtime.NumCPU(),
		taskQueueSize: 256,
		idleTimeout:   time.Second,
		queueDepth:    16,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.NumCPU()
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, d.taskQueueSize, d.idleTimeout)
	d.library = newDefaultLibrary()
	common.Logger().Info("software device created", "name", d.name, "workers", d.workers)
	return d
}

func (d *device) Name() string {
	return d.name
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
	return &buffer{label: label, contents: contents}, nil
}

func (d *device) NewTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return newTexture(desc), nil
}

func (d *device) NewTextureCache() (gpu.TextureCache, error) {
	return newTextureCache(), nil
}

func (d *device) DefaultLibrary() (gpu.Library, error) {
	return d.library, nil
}

func (d *device) NewRenderPipelineState(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipelineState, error) {
	vf, ok := desc.VertexFunction.(*function)
	if !ok || vf.stage != gpu.FunctionStageVertex || vf.vertex == nil {
		return nil, fmt.Errorf("render pipeline %q: vertex function: %w", desc.Label, gpu.ErrFunctionNotFound)
	}
	ff, ok := desc.FragmentFunction.(*function)
	if !ok || ff.stage != gpu.FunctionStageFragment || ff.fragment == nil {
		return nil, fmt.Errorf("render pipeline %q: fragment function: %w", desc.Label, gpu.ErrFunctionNotFound)
	}
	switch desc.ColorFormat {
	case gpu.PixelFormatBGRA8Unorm, gpu.PixelFormatRGBA8Unorm:
	default:
		return nil, fmt.Errorf("render pipeline %q color format %s: %w", desc.Label, desc.ColorFormat, gpu.ErrUnsupportedFormat)
	}
	if desc.SampleCount > 1 {
		return nil, fmt.Errorf("render pipeline %q: multisampling is not supported", desc.Label)
	}
	return &renderPipelineState{
		label:       desc.Label,
		vertex:      vf.vertex,
		fragment:    ff.fragment,
		colorFormat: desc.ColorFormat,
	}, nil
}

func (d *device) NewComputePipelineState(fn gpu.Function) (gpu.ComputePipelineState, error) {
	kf, ok := fn.(*function)
	if !ok || kf.stage != gpu.FunctionStageKernel || kf.kernel == nil {
		return nil, fmt.Errorf("compute pipeline: %w", gpu.ErrFunctionNotFound)
	}
	return &computePipelineState{label: kf.name, kernel: kf.kernel}, nil
}

func (d *device) NewImageTent(kernelWidth, kernelHeight int) (gpu.ImageKernel, error) {
	if kernelWidth <= 0 || kernelHeight <= 0 || kernelWidth%2 == 0 || kernelHeight%2 == 0 {
		return nil, fmt.Errorf("tent kernel %dx%d: %w", kernelWidth, kernelHeight, gpu.ErrInvalidSize)
	}
	return &imageTent{device: d, radiusX: kernelWidth / 2, radiusY: kernelHeight / 2}, nil
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
	d.pool.Stop()
}

func (d *device) isReleased() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// parallelRows splits [0, n) into one band per worker and runs fn on each band concurrently.
// Returns once every band finished.
func (d *device) parallelRows(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := min(d.workers, n)
	if bands <= 1 {
		fn(0, n)
		return
	}
	step := common.CeilDiv(n, bands)
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += step {
		hi := min(lo+step, n)
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID:      lo,
			Payload: [2]int{lo, hi},
			Do: func() (any, error) {
				defer wg.Done()
				fn(lo, hi)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
