package camera

import "github.com/Carmen-Shannon/oxy-halo/engine/session"

// CameraBuilderOption is a functional option for configuring a camera Source.
type CameraBuilderOption func(s *Source)

// WithDevice sets the V4L2 device node, e.g. /dev/video0.
//
// Parameters:
//   - device: the device path
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithDevice(device string) CameraBuilderOption {
	return func(s *Source) {
		s.device = device
	}
}

// WithTestPattern replaces the camera with GStreamer's videotestsrc.
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithTestPattern() CameraBuilderOption {
	return func(s *Source) {
		s.testPattern = true
	}
}

// WithResolution sets the negotiated capture size.
//
// Parameters:
//   - width: capture width in pixels, rounded down to even
//   - height: capture height in pixels, rounded down to even
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithResolution(width, height int) CameraBuilderOption {
	return func(s *Source) {
		s.width = width &^ 1
		s.height = height &^ 1
	}
}

// WithFrameRate sets the negotiated capture rate.
//
// Parameters:
//   - fps: frames per second
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFrameRate(fps int) CameraBuilderOption {
	return func(s *Source) {
		s.fps = fps
	}
}

// WithMailbox publishes frames to an existing mailbox instead of a new one.
//
// Parameters:
//   - m: the mailbox
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithMailbox(m *session.Mailbox) CameraBuilderOption {
	return func(s *Source) {
		s.mailbox = m
	}
}
