package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/disintegration/imaging"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Format is an output file format.
type Format int

const (
	FormatPNG Format = iota
	FormatEXR
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatEXR:
		return "exr"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat parses "png" or "exr", case insensitively.
//
// Parameters:
//   - s: the format name
//
// Returns:
//   - Format: the format
//   - error: error if s names no format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "exr":
		return FormatEXR, nil
	default:
		return 0, fmt.Errorf("unknown snapshot format %q", s)
	}
}

// WritePNG encodes img as an 8-bit PNG.
//
// Parameters:
//   - path: the output file
//   - img: the image
//
// Returns:
//   - error: the encoding or file error
func WritePNG(path string, img *Image) error {
	if err := imaging.Save(img.NRGBA(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteEXR encodes img as a half float EXR with channels in [0, 1].
//
// Parameters:
//   - path: the output file
//   - img: the image
//
// Returns:
//   - error: the encoding or file error
func WriteEXR(path string, img *Image) error {
	if err := exr.EncodeFile(path, img.EXR()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Writer writes numbered snapshots into a directory in every configured format.
// Files are named <prefix><name>-<seq>.<ext>; seq counts Write calls.
type Writer struct {
	mu      *sync.Mutex
	dir     string
	prefix  string
	formats []Format
	seq     int
}

// NewWriter creates dir if needed.
//
// Parameters:
//   - dir: the output directory
//   - options: functional options for the writer
//
// Returns:
//   - *Writer: the writer
//   - error: error if dir cannot be created or no format is configured
func NewWriter(dir string, options ...WriterBuilderOption) (*Writer, error) {
	w := &Writer{
		mu:      &sync.Mutex{},
		dir:     dir,
		formats: []Format{FormatPNG},
	}
	for _, opt := range options {
		opt(w)
	}
	if len(w.formats) == 0 {
		return nil, errors.New("snapshot writer needs at least one format")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return w, nil
}

// Write stores img under name in each format.
//
// Parameters:
//   - name: the snapshot name, e.g. "composite"
//   - img: the image
//
// Returns:
//   - []string: the written paths
//   - error: the first write error
func (w *Writer) Write(name string, img *Image) ([]string, error) {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	paths := make([]string, 0, len(w.formats))
	for _, f := range w.formats {
		path := filepath.Join(w.dir, fmt.Sprintf("%s%s-%04d.%s", w.prefix, name, seq, f))
		var err error
		switch f {
		case FormatEXR:
			err = WriteEXR(path, img)
		default:
			err = WritePNG(path, img)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	common.Logger().Info("snapshot written", "name", name, "size", img.Size, "files", paths)
	return paths, nil
}
