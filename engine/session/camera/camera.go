package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Source captures NV12 frames from a camera through a GStreamer pipeline:
//
//	v4l2src ! videoconvert ! videoscale ! capsfilter(NV12) ! appsink
type Source struct {
	device      string
	testPattern bool
	width       int
	height      int
	fps         int

	mailbox *session.Mailbox

	mu       *sync.Mutex
	pipeline *gst.Pipeline
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	frames  atomic.Uint64
	dropped atomic.Uint64
	bytes   atomic.Uint64
}

var _ session.Source = &Source{}

// NewSource creates a camera source. The pipeline is built by Start.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Source: the source
func NewSource(options ...CameraBuilderOption) *Source {
	s := &Source{
		device: "/dev/video0",
		width:  1280,
		height: 720,
		fps:    30,
		mu:     &sync.Mutex{},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.mailbox == nil {
		s.mailbox = session.NewMailbox()
	}
	return s
}

func (s *Source) Mailbox() *session.Mailbox {
	return s.mailbox
}

func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipeline != nil {
		return fmt.Errorf("camera %s already running", s.device)
	}

	gst.Init(nil)
	pipeline, sink, err := s.buildPipeline()
	if err != nil {
		return err
	}

	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("failed to start camera pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.pipeline = pipeline
	s.cancel = cancel
	s.wg.Add(1)
	go s.monitor(ctx, pipeline)

	common.Logger().Info("camera started",
		"device", s.device,
		"test_pattern", s.testPattern,
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"fps", s.fps,
	)
	return nil
}

func (s *Source) buildPipeline() (*gst.Pipeline, *app.Sink, error) {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	var src *gst.Element
	if s.testPattern {
		src, err = gst.NewElement("videotestsrc")
		if err == nil {
			src.SetProperty("is-live", true)
		}
	} else {
		src, err = gst.NewElement("v4l2src")
		if err == nil {
			src.SetProperty("device", s.device)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source element: %w", err)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoscale: %w", err)
	}
	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	caps := fmt.Sprintf("video/x-raw,format=NV12,width=%d,height=%d,framerate=%d/1", s.width, s.height, s.fps)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(caps))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, scaler, capsfilter, sink.Element)
	if err := gst.ElementLinkMany(src, converter, scaler, capsfilter, sink.Element); err != nil {
		return nil, nil, fmt.Errorf("failed to link camera pipeline: %w", err)
	}
	return pipeline, sink, nil
}

// onNewSample copies the NV12 sample out of GStreamer's buffer and publishes it.
func (s *Source) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		common.Logger().Warn("camera: failed to pull sample, skipping frame")
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		common.Logger().Warn("camera: sample without buffer, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return gst.FlowOK
	}
	pb, err := NV12ToPixelBuffer(data, s.width, s.height)
	buffer.Unmap()
	if err != nil {
		s.dropped.Add(1)
		common.Logger().Warn("camera: bad sample", "error", err)
		return gst.FlowOK
	}

	seq := s.frames.Add(1)
	s.bytes.Add(uint64(len(data)))
	frame := &session.Frame{
		Seq:           seq,
		TraceID:       uuid.New().String(),
		Timestamp:     time.Now(),
		CapturedImage: pb,
	}
	s.mailbox.Publish(frame)
	common.Logger().Debug("camera: frame published", "seq", seq, "trace_id", frame.TraceID)
	return gst.FlowOK
}

// monitor watches the pipeline bus until ctx ends or the stream fails.
func (s *Source) monitor(ctx context.Context, pipeline *gst.Pipeline) {
	defer s.wg.Done()
	bus := pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			common.Logger().Info("camera: end of stream", "frames", s.frames.Load())
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			common.Logger().Error("camera: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
				"frames", s.frames.Load(),
			)
			return
		}
	}
}

func (s *Source) Stop() error {
	s.mu.Lock()
	pipeline, cancel := s.pipeline, s.cancel
	s.pipeline, s.cancel = nil, nil
	s.mu.Unlock()
	if pipeline == nil {
		return nil
	}
	cancel()
	s.wg.Wait()
	if err := pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to stop camera pipeline: %w", err)
	}
	common.Logger().Info("camera stopped",
		"frames", s.frames.Load(),
		"dropped", s.dropped.Load(),
		"bytes", s.bytes.Load(),
	)
	return nil
}

// NV12ToPixelBuffer copies a GStreamer NV12 frame into a bi-planar pixel buffer.
// GStreamer pads NV12 rows to 4 bytes and the luma plane to an even row count.
//
// Parameters:
//   - data: the mapped sample bytes
//   - width: frame width
//   - height: frame height
//
// Returns:
//   - *gpu.PixelBuffer: the copied frame
//   - error: gpu.ErrInvalidSize if data is too short
func NV12ToPixelBuffer(data []byte, width, height int) (*gpu.PixelBuffer, error) {
	stride := (width + 3) &^ 3
	chromaOffset := stride * ((height + 1) &^ 1)
	chromaRows := (height + 1) / 2
	if len(data) < chromaOffset+stride*(chromaRows-1)+((width+1)/2)*2 {
		return nil, fmt.Errorf("nv12 %dx%d with %d bytes: %w", width, height, len(data), gpu.ErrInvalidSize)
	}

	pb := gpu.NewBiPlanarBuffer(width, height)
	luma, chroma := pb.Planes[0], pb.Planes[1]
	for y := 0; y < height; y++ {
		copy(luma.Data[y*luma.BytesPerRow:(y+1)*luma.BytesPerRow], data[y*stride:y*stride+width])
	}
	row := chroma.Width * 2
	for y := 0; y < chromaRows; y++ {
		src := chromaOffset + y*stride
		copy(chroma.Data[y*chroma.BytesPerRow:y*chroma.BytesPerRow+row], data[src:src+row])
	}
	return pb, nil
}
