package session

import (
	"image"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
)

// Frame is one captured camera image.
type Frame struct {
	// Seq increases by one per frame published by a source.
	Seq uint64

	// TraceID identifies the frame across log lines.
	TraceID string

	// Timestamp is the capture time.
	Timestamp time.Time

	// CapturedImage is bi-planar YCbCr: plane 0 luma, plane 1 interleaved CbCr.
	CapturedImage *gpu.PixelBuffer

	// Matte is an optional person segmentation of the captured image at any resolution,
	// 255 where the subject is.
	Matte *image.Gray
}

// ImageSize returns the luma plane size.
func (f *Frame) ImageSize() common.Size {
	if f == nil || f.CapturedImage == nil {
		return common.Size{}
	}
	return common.Size{Width: f.CapturedImage.Width(), Height: f.CapturedImage.Height()}
}

// DisplayTransform maps normalized captured-image coordinates to normalized view coordinates
// for the given interface orientation and viewport, aspect filling the viewport.
//
// Parameters:
//   - orientation: the interface orientation
//   - viewport: the viewport size in pixels
//
// Returns:
//   - common.AffineTransform: the image-to-view transform
func (f *Frame) DisplayTransform(orientation common.Orientation, viewport common.Size) common.AffineTransform {
	return DisplayTransform(f.ImageSize(), orientation, viewport)
}

// Session exposes the most recent camera frame.
type Session interface {
	// CurrentFrame returns the latest frame, or nil if no frame is ready yet.
	//
	// Returns:
	//   - *Frame: the latest frame or nil
	CurrentFrame() *Frame
}

// Source produces frames into a Mailbox until stopped.
type Source interface {
	// Start begins producing frames. It returns once the source is running.
	//
	// Returns:
	//   - error: error if the source could not start
	Start() error

	// Stop halts the source and waits for its goroutines.
	//
	// Returns:
	//   - error: error if shutdown failed
	Stop() error

	// Mailbox returns the mailbox frames are published to.
	Mailbox() *Mailbox
}
