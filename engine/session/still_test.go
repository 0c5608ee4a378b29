package session

import (
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
	return path
}

func TestStillSourceLoads(t *testing.T) {
	img := writeImage(t, "subject.png", 64, 32, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	matte := writeImage(t, "matte.png", 64, 32, color.White)

	s, err := NewStillSource(img, WithMattePath(matte), WithMaxSize(32, 32))
	require.NoError(t, err)

	f := s.Frame()
	assert.Equal(t, uint64(1), f.Seq)
	assert.NotEmpty(t, f.TraceID)
	assert.Equal(t, 32, f.CapturedImage.Width())
	assert.Equal(t, 16, f.CapturedImage.Height())
	require.NotNil(t, f.Matte)
	assert.Equal(t, 16, f.Matte.Bounds().Dx())
	assert.Equal(t, 8, f.Matte.Bounds().Dy())
	assert.Equal(t, uint8(255), f.Matte.GrayAt(4, 4).Y)

	g := s.Frame()
	assert.Equal(t, uint64(2), g.Seq)
	assert.NotEqual(t, f.TraceID, g.TraceID)
	assert.Same(t, f.CapturedImage, g.CapturedImage)
}

func TestStillSourceMissingFiles(t *testing.T) {
	_, err := NewStillSource(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	img := writeImage(t, "subject.png", 4, 4, color.Black)
	_, err = NewStillSource(img, WithMattePath(filepath.Join(t.TempDir(), "missing.png")))
	assert.Error(t, err)
}

func TestStillSourcePublishes(t *testing.T) {
	img := writeImage(t, "subject.png", 4, 4, color.Black)
	mb := NewMailbox()
	s, err := NewStillSource(img, WithFrameRate(200), WithMailbox(mb))
	require.NoError(t, err)
	assert.Same(t, mb, s.Mailbox())
	assert.Equal(t, 5*time.Millisecond, s.interval)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	f, err := mb.Next(t.Context(), 1)
	require.NoError(t, err)
	assert.Greater(t, f.Seq, uint64(1))

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	published := mb.Stats().Published
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, published, mb.Stats().Published)
}

func TestWithFrameRateDefault(t *testing.T) {
	s := &StillSource{}
	WithFrameRate(0)(s)
	assert.Equal(t, time.Second/30, s.interval)
}
