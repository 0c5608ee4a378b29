package session

import "time"

// StillBuilderOption is a functional option for configuring a StillSource.
type StillBuilderOption func(s *StillSource)

// WithMattePath loads a segmentation matte image alongside the source image.
// White marks the subject.
//
// Parameters:
//   - path: path of the matte image
//
// Returns:
//   - StillBuilderOption: option function to apply
func WithMattePath(path string) StillBuilderOption {
	return func(s *StillSource) {
		s.mattePath = path
	}
}

// WithFrameRate sets how often the still image is republished as a new frame.
// Values <= 0 fall back to 30.
//
// Parameters:
//   - fps: frames per second
//
// Returns:
//   - StillBuilderOption: option function to apply
func WithFrameRate(fps float64) StillBuilderOption {
	return func(s *StillSource) {
		if fps <= 0 {
			fps = 30
		}
		s.interval = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxSize bounds the decoded image, preserving aspect ratio. Zero disables the bound.
//
// Parameters:
//   - width: maximum width in pixels
//   - height: maximum height in pixels
//
// Returns:
//   - StillBuilderOption: option function to apply
func WithMaxSize(width, height int) StillBuilderOption {
	return func(s *StillSource) {
		s.maxWidth = width
		s.maxHeight = height
	}
}

// WithMailbox publishes frames to an existing mailbox instead of a new one.
//
// Parameters:
//   - m: the mailbox
//
// Returns:
//   - StillBuilderOption: option function to apply
func WithMailbox(m *Mailbox) StillBuilderOption {
	return func(s *StillSource) {
		s.mailbox = m
	}
}
