package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// releaser is any wgpu object or texture a command buffer keeps alive until it completes.
type releaser interface {
	Release()
}

// commandQueue submits committed buffers one at a time on its own goroutine and waits for
// the device to finish each before running its completion handlers.
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
		cb.finish(cb.execute())
	}
}

// submit hands cb to the executor. Buffers committed after the queue closed fail immediately.
func (q *commandQueue) submit(cb *commandBuffer) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cb.finish(gpu.ErrReleased)
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

// commandBuffer records into one wgpu command encoder. Bind groups, transient buffers and
// scratch textures used by the recorded passes are retained until the buffer completes.
type commandBuffer struct {
	queue *commandQueue
	label string

	mu        *sync.Mutex
	encoder   *wgpu.CommandEncoder
	retained  []releaser
	drawables []*drawable
	handlers  []func(gpu.CommandBuffer)
	status    gpu.CommandBufferStatus
	err       error
	recordErr error
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
	enc, err := cb.beginEncoder()
	if err != nil {
		return nil, err
	}
	return &computeEncoder{cb: cb, pass: enc.BeginComputePass(nil)}, nil
}

func (cb *commandBuffer) RenderCommandEncoder(desc *gpu.RenderPassDescriptor) (gpu.RenderCommandEncoder, error) {
	if desc == nil {
		return nil, errors.New("render encoder: nil pass descriptor")
	}
	target := asTexture(desc.ColorTexture)
	if target == nil {
		return nil, fmt.Errorf("render encoder: color attachment: %w", gpu.ErrReleased)
	}
	enc, err := cb.beginEncoder()
	if err != nil {
		return nil, err
	}
	pass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     loadOp(desc.LoadAction),
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearValue(desc.ClearColor),
			},
		},
	})
	return &renderEncoder{cb: cb, pass: pass}, nil
}

func (cb *commandBuffer) Present(d gpu.Drawable) {
	wd, ok := d.(*drawable)
	if !ok || wd == nil {
		return
	}
	wd.view.detach(wd)
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.drawables = append(cb.drawables, wd)
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

// beginEncoder marks a pass open and returns the wgpu encoder, creating it on first use.
func (cb *commandBuffer) beginEncoder() (*wgpu.CommandEncoder, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != gpu.CommandBufferStatusNotEnqueued {
		return nil, fmt.Errorf("%s: %w", cb.label, gpu.ErrCommitted)
	}
	if cb.encoding {
		return nil, fmt.Errorf("%s: previous encoder was not ended", cb.label)
	}
	if cb.encoder == nil {
		enc, err := cb.queue.device.device.CreateCommandEncoder(nil)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create command encoder: %w", cb.label, err)
		}
		cb.encoder = enc
	}
	cb.encoding = true
	return cb.encoder, nil
}

func (cb *commandBuffer) endEncoder() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.encoding = false
}

// retain keeps r alive until the buffer completes.
func (cb *commandBuffer) retain(r releaser) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.retained = append(cb.retained, r)
}

// fail records the first encoding error. The buffer then completes with it without being submitted.
func (cb *commandBuffer) fail(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.recordErr == nil {
		cb.recordErr = err
	}
}

// execute submits the recorded work, presents the drawables and waits for the device.
func (cb *commandBuffer) execute() error {
	cb.mu.Lock()
	encoder, recordErr, drawables := cb.encoder, cb.recordErr, cb.drawables
	cb.encoder, cb.drawables = nil, nil
	cb.mu.Unlock()

	d := cb.queue.device
	if encoder != nil {
		defer encoder.Release()
	}
	if recordErr != nil {
		discardAll(drawables)
		return recordErr
	}
	if encoder != nil {
		commandBuffer, err := encoder.Finish(nil)
		if err != nil {
			discardAll(drawables)
			return fmt.Errorf("%s: failed to finish: %w", cb.label, err)
		}
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	for _, dr := range drawables {
		dr.present()
	}
	d.device.Poll(true, nil)
	return nil
}

func (cb *commandBuffer) finish(err error) {
	cb.mu.Lock()
	if cb.encoder != nil {
		cb.encoder.Release()
		cb.encoder = nil
	}
	discardAll(cb.drawables)
	cb.drawables = nil
	retained := cb.retained
	cb.retained = nil
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

	for _, r := range retained {
		r.Release()
	}
	for _, h := range handlers {
		h(cb)
	}
}

func discardAll(drawables []*drawable) {
	for _, d := range drawables {
		d.discard()
	}
}

type computeEncoder struct {
	cb       *commandBuffer
	pass     *wgpu.ComputePassEncoder
	pipeline *computePipelineState
	textures textureArguments
	params   *wgpu.Buffer
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
	if e.pipeline == nil {
		e.cb.fail(errors.New("dispatch: no compute pipeline state"))
		return
	}
	if threads.Width*threads.Height*max(threads.Depth, 1) > e.pipeline.MaxTotalThreadsPerThreadgroup() {
		e.cb.fail(fmt.Errorf("dispatch: threadgroup %dx%d exceeds %d threads", threads.Width, threads.Height, e.pipeline.MaxTotalThreadsPerThreadgroup()))
		return
	}
	device := e.cb.queue.device
	bg, err := e.pipeline.args.bindGroup(device, &e.textures, e.params)
	if err != nil {
		e.cb.fail(fmt.Errorf("dispatch %s: %w", e.pipeline.label, err))
		return
	}

	e.pass.SetPipeline(e.pipeline.pipeline)
	if bg != nil {
		e.cb.retain(bg)
		e.pass.SetBindGroup(0, bg, nil)
	}
	count := workgroupCount(groups, threads, e.pipeline.workgroupSize)
	e.pass.DispatchWorkgroups(count[0], count[1], count[2])
}

func (e *computeEncoder) EndEncoding() {
	if e.ended {
		return
	}
	e.ended = true
	e.pass.End()
	e.cb.endEncoder()
}

type renderEncoder struct {
	cb       *commandBuffer
	pass     *wgpu.RenderPassEncoder
	pipeline *renderPipelineState
	cullMode gpu.CullMode
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

// SetVertexBuffer uploads the buffer's current contents into a vertex buffer owned by this command buffer.
func (e *renderEncoder) SetVertexBuffer(b gpu.Buffer, offset, index int) {
	wb, ok := b.(*buffer)
	if !ok || index < 0 || offset < 0 || offset >= wb.Len() {
		return
	}
	data := wb.snapshot()[offset:]
	if pad := len(data) % 4; pad != 0 {
		data = append(data, make([]byte, 4-pad)...)
	}

	device := e.cb.queue.device
	vb, err := device.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            wb.label + " Vertex Buffer",
		Size:             uint64(len(data)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		e.cb.fail(fmt.Errorf("vertex buffer %q: %w", wb.label, err))
		return
	}
	e.cb.retain(vb)
	device.queue.WriteBuffer(vb, 0, data)
	e.pass.SetVertexBuffer(uint32(index), vb, 0, wgpu.WholeSize)
}

func (e *renderEncoder) SetFragmentTexture(t gpu.Texture, index int) {
	if index < 0 || index >= maxTextureArguments {
		return
	}
	e.textures[index] = asTexture(t)
}

func (e *renderEncoder) DrawPrimitives(primitive gpu.PrimitiveType, vertexStart, vertexCount int) {
	if e.pipeline == nil {
		e.cb.fail(errors.New("draw: no render pipeline state"))
		return
	}
	p, err := e.pipeline.variant(renderVariant{cullMode: e.cullMode, primitive: primitive})
	if err != nil {
		e.cb.fail(err)
		return
	}
	device := e.cb.queue.device
	bg, err := e.pipeline.args.bindGroup(device, &e.textures, nil)
	if err != nil {
		e.cb.fail(fmt.Errorf("draw %s: %w", e.pipeline.label, err))
		return
	}

	e.pass.SetPipeline(p)
	if bg != nil {
		e.cb.retain(bg)
		e.pass.SetBindGroup(0, bg, nil)
	}
	e.pass.Draw(uint32(vertexCount), 1, uint32(vertexStart), 0)
}

func (e *renderEncoder) EndEncoding() {
	if e.ended {
		return
	}
	e.ended = true
	e.pass.End()
	e.cb.endEncoder()
}
