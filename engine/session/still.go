package session

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// StillSource replays a single image, and optionally its matte, as a live camera feed.
type StillSource struct {
	path      string
	mattePath string
	interval  time.Duration
	maxWidth  int
	maxHeight int

	image *gpu.PixelBuffer
	matte *image.Gray

	mailbox *Mailbox
	seq     atomic.Uint64

	mu      *sync.Mutex
	quit    chan struct{}
	wg      sync.WaitGroup
	running bool
}

var _ Source = &StillSource{}

// NewStillSource decodes the image at path and prepares it for publishing.
// The matte, when configured, is scaled to half the image resolution.
//
// Parameters:
//   - path: path of the source image
//   - options: functional options
//
// Returns:
//   - *StillSource: the source, not yet started
//   - error: error if an image cannot be decoded
func NewStillSource(path string, options ...StillBuilderOption) (*StillSource, error) {
	s := &StillSource{
		path:     path,
		interval: time.Second / 30,
		mu:       &sync.Mutex{},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.mailbox == nil {
		s.mailbox = NewMailbox()
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open source image %q: %w", path, err)
	}
	if s.maxWidth > 0 && s.maxHeight > 0 {
		b := img.Bounds()
		if b.Dx() > s.maxWidth || b.Dy() > s.maxHeight {
			img = imaging.Fit(img, s.maxWidth, s.maxHeight, imaging.Lanczos)
		}
	}
	s.image = PixelBufferFromImage(img)

	if s.mattePath != "" {
		m, err := imaging.Open(s.mattePath, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to open matte image %q: %w", s.mattePath, err)
		}
		half := imaging.Resize(imaging.Grayscale(m), max(s.image.Width()/2, 1), max(s.image.Height()/2, 1), imaging.Linear)
		s.matte = GrayFromImage(half)
	}

	common.Logger().Info("still source loaded",
		"path", path,
		"width", s.image.Width(),
		"height", s.image.Height(),
		"matte", s.matte != nil,
	)
	return s, nil
}

// Frame builds the next frame without publishing it.
//
// Returns:
//   - *Frame: a frame sharing the decoded pixel buffer and matte
func (s *StillSource) Frame() *Frame {
	return &Frame{
		Seq:           s.seq.Add(1),
		TraceID:       uuid.New().String(),
		Timestamp:     time.Now(),
		CapturedImage: s.image,
		Matte:         s.matte,
	}
}

func (s *StillSource) Mailbox() *Mailbox {
	return s.mailbox
}

func (s *StillSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("still source %q already running", s.path)
	}
	s.running = true
	s.quit = make(chan struct{})
	s.mailbox.Publish(s.Frame())

	s.wg.Add(1)
	go func(quit chan struct{}) {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				s.mailbox.Publish(s.Frame())
			}
		}
	}(s.quit)
	return nil
}

func (s *StillSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.quit)
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
