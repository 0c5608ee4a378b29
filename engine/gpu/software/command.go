package software

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// commandQueue executes committed buffers one at a time on its own goroutine.
type commandQueue struct {
	device  *device
	pending chan *commandBuffer
	done    chan struct{}

	mu     *sync.Mutex
	closed bool
	serial uint64
}

var _ gpu.CommandQueue = &commandQueue{}

func newCommandQueue(d *device, depth int) *commandQueue {
	q := &commandQueue{
		device:  d,
		pending: make(chan *commandBuffer, max(depth, 1)),
		done:    make(chan struct{}),
		mu:      &sync.Mutex{},
	}
	go q.run()
	return q
}

func (q *commandQueue) CommandBuffer() (gpu.CommandBuffer, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, fmt.Errorf("command buffer: %w", gpu.ErrReleased)
	}
	q.serial++
	return &commandBuffer{
		queue: q,
		label: fmt.Sprintf("command buffer %d", q.serial),
		mu:    &sync.Mutex{},
	}, nil
}

func (q *commandQueue) run() {
	defer close(q.done)
	for cb := range q.pending {
		cb.execute()
	}
}

// submit hands cb to the executor. Buffers committed after the queue closed fail immediately.
func (q *commandQueue) submit(cb *commandBuffer) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cb.fail(gpu.ErrReleased)
		return
	}
	q.pending <- cb
	q.mu.Unlock()
}

func (q *commandQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.pending)
	q.mu.Unlock()
	<-q.done
}

// commandBuffer records closures that run on the queue goroutine when executed.
type commandBuffer struct {
	queue *commandQueue
	label string

	mu        *sync.Mutex
	ops       []func() error
	drawables []*drawable
	handlers  []func(gpu.CommandBuffer)
	status    gpu.CommandBufferStatus
	err       error
	encoding  bool
}

var _ gpu.CommandBuffer = &commandBuffer{}

func (cb *commandBuffer) Label() string {
	return cb.label
}

func (cb *commandBuffer) AddCompletedHandler(handler func(gpu.CommandBuffer)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.handlers = append(cb.handlers, handler)
}

func (cb *commandBuffer) ComputeCommandEncoder() (gpu.ComputeCommandEncoder, error) {
	if err := cb.beginEncoder(); err != nil {
		return nil, err
	}
	return &computeEncoder{cb: cb}, nil
}

func (cb *commandBuffer) RenderCommandEncoder(desc *gpu.RenderPassDescriptor) (gpu.RenderCommandEncoder, error) {
	if desc == nil {
		return nil, errors.New("render encoder: nil pass descriptor")
	}
	target := asTexture(desc.ColorTexture)
	if target == nil {
		return nil, fmt.Errorf("render encoder: color attachment: %w", gpu.ErrReleased)
	}
	if err := cb.beginEncoder(); err != nil {
		return nil, err
	}
	if desc.LoadAction == gpu.LoadActionClear {
		fill := [4]uint8{
			common.UnormToByte(float32(desc.ClearColor.R)),
			common.UnormToByte(float32(desc.ClearColor.G)),
			common.UnormToByte(float32(desc.ClearColor.B)),
			common.UnormToByte(float32(desc.ClearColor.A)),
		}
		cb.appendOp(func() error {
			for y := 0; y < target.height; y++ {
				for x := 0; x < target.width; x++ {
					target.setTexel(x, y, fill)
				}
			}
			return nil
		})
	}
	return &renderEncoder{cb: cb, target: target}, nil
}

func (cb *commandBuffer) Present(d gpu.Drawable) {
	sd, ok := d.(*drawable)
	if !ok || sd == nil {
		return
	}
	sd.view.detach(sd)
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.drawables = append(cb.drawables, sd)
}

func (cb *commandBuffer) Commit() {
	cb.mu.Lock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		cb.mu.Unlock()
		return
	}
	cb.status = gpu.CommandBufferStatusCommitted
	cb.encoding = false
	cb.mu.Unlock()
	cb.queue.submit(cb)
}

func (cb *commandBuffer) Status() gpu.CommandBufferStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.status
}

func (cb *commandBuffer) Err() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.err
}

func (cb *commandBuffer) beginEncoder() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		return fmt.Errorf("%s: %w", cb.label, gpu.ErrCommitted)
	}
	if cb.encoding {
		return fmt.Errorf("%s: previous encoder was not ended", cb.label)
	}
	cb.encoding = true
	return nil
}

func (cb *commandBuffer) endEncoder() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.encoding = false
}

func (cb *commandBuffer) appendOp(op func() error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.ops = append(cb.ops, op)
}

// encode appends op outside of any pass, as image kernels do.
func (cb *commandBuffer) encode(op func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		return fmt.Errorf("%s: %w", cb.label, gpu.ErrCommitted)
	}
	if cb.encoding {
		return fmt.Errorf("%s: an encoder is still open", cb.label)
	}
	cb.ops = append(cb.ops, op)
	return nil
}

func (cb *commandBuffer) execute() {
	var err error
	for _, op := range cb.ops {
		if err = op(); err != nil {
			break
		}
	}
	if err == nil {
		for _, d := range cb.drawables {
			d.Present()
		}
	}
	cb.finish(err)
}

func (cb *commandBuffer) fail(err error) {
	cb.finish(err)
}

func (cb *commandBuffer) finish(err error) {
	cb.mu.Lock()
	cb.ops = nil
	cb.err = err
	if err != nil {
		cb.status = gpu.CommandBufferStatusError
		common.Logger().Debug("command buffer failed", "label", cb.label, "error", err)
	} else {
		cb.status = gpu.CommandBufferStatusCompleted
	}
	handlers := cb.handlers
	cb.handlers = nil
	cb.mu.Unlock()

	for _, h := range handlers {
		h(cb)
	}
}

type computeEncoder struct {
	cb       *commandBuffer
	pipeline *computePipelineState
	textures textureArguments
	ended    bool
}

var _ gpu.ComputeCommandEncoder = &computeEncoder{}

func (e *computeEncoder) SetComputePipelineState(state gpu.ComputePipelineState) {
	e.pipeline, _ = state.(*computePipelineState)
}

func (e *computeEncoder) SetTexture(t gpu.Texture, index int) {
	if index < 0 || index >= maxTextureArguments {
		return
	}
	e.textures[index] = asTexture(t)
}

func (e *computeEncoder) DispatchThreadgroups(groups, threads gpu.Size3D) {
	pipeline, textures := e.pipeline, e.textures
	device := e.cb.queue.device
	e.cb.appendOp(func() error {
		if pipeline == nil {
			return errors.New("dispatch: no compute pipeline state")
		}
		if max(groups.Depth, 1)*max(threads.Depth, 1) != 1 {
			return fmt.Errorf("dispatch: depth %d is not supported", groups.Depth*threads.Depth)
		}
		if threads.Width*threads.Height > pipeline.MaxTotalThreadsPerThreadgroup() {
			return fmt.Errorf("dispatch: threadgroup %dx%d exceeds %d threads", threads.Width, threads.Height, pipeline.MaxTotalThreadsPerThreadgroup())
		}
		gridW, gridH := groups.Width*threads.Width, groups.Height*threads.Height
		device.parallelRows(gridH, func(lo, hi int) {
			for y := lo; y < hi; y++ {
				for x := 0; x < gridW; x++ {
					pipeline.kernel(x, y, &textures)
				}
			}
		})
		return nil
	})
}

func (e *computeEncoder) EndEncoding() {
	if e.ended {
		return
	}
	e.ended = true
	e.cb.endEncoder()
}

type renderEncoder struct {
	cb       *commandBuffer
	target   *texture
	pipeline *renderPipelineState
	cullMode gpu.CullMode
	buffers  [][]float32
	textures textureArguments
	ended    bool
}

var _ gpu.RenderCommandEncoder = &renderEncoder{}

func (e *renderEncoder) SetRenderPipelineState(state gpu.RenderPipelineState) {
	e.pipeline, _ = state.(*renderPipelineState)
}

func (e *renderEncoder) SetCullMode(mode gpu.CullMode) {
	e.cullMode = mode
}

func (e *renderEncoder) SetVertexBuffer(b gpu.Buffer, offset, index int) {
	sb, ok := b.(*buffer)
	if !ok || index < 0 || offset < 0 || offset > sb.Len() {
		return
	}
	for len(e.buffers) <= index {
		e.buffers = append(e.buffers, nil)
	}
	data := sb.snapshot()[offset:]
	floats := make([]float32, len(data)/4)
	copy(floats, common.BytesToFloat32s(data))
	e.buffers[index] = floats
}

func (e *renderEncoder) SetFragmentTexture(t gpu.Texture, index int) {
	if index < 0 || index >= maxTextureArguments {
		return
	}
	e.textures[index] = asTexture(t)
}

func (e *renderEncoder) DrawPrimitives(primitive gpu.PrimitiveType, vertexStart, vertexCount int) {
	dc := &drawCall{
		pipeline:  e.pipeline,
		cullMode:  e.cullMode,
		buffers:   append([][]float32(nil), e.buffers...),
		textures:  e.textures,
		primitive: primitive,
		start:     vertexStart,
		count:     vertexCount,
	}
	target := e.target
	device := e.cb.queue.device
	e.cb.appendOp(func() error {
		if dc.pipeline == nil {
			return errors.New("draw: no render pipeline state")
		}
		tris := dc.assemble(target.width, target.height)
		device.parallelRows(target.height, func(lo, hi int) {
			dc.rasterize(target, tris, lo, hi)
		})
		return nil
	})
}

func (e *renderEncoder) EndEncoding() {
	if e.ended {
		return
	}
	e.ended = true
	e.cb.endEncoder()
}
