package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNV12ToPixelBufferStripsPadding(t *testing.T) {
	const width, height, stride = 6, 3, 8
	data := make([]byte, 32+stride+6)
	for y := range height {
		for x := range width {
			data[y*stride+x] = byte(10*y + x)
		}
	}
	for y := range 2 {
		for i := range 6 {
			data[32+y*stride+i] = byte(100 + 10*y + i)
		}
	}

	pb, err := NV12ToPixelBuffer(data, width, height)
	require.NoError(t, err)
	require.Equal(t, 2, pb.PlaneCount())

	luma, chroma := pb.Planes[0], pb.Planes[1]
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 10, 11, 12, 13, 14, 15, 20, 21, 22, 23, 24, 25}, luma.Data)
	assert.Equal(t, 3, chroma.Width)
	assert.Equal(t, 2, chroma.Height)
	assert.Equal(t, []byte{100, 101, 102, 103, 104, 105, 110, 111, 112, 113, 114, 115}, chroma.Data)
}

func TestNV12ToPixelBufferTooShort(t *testing.T) {
	_, err := NV12ToPixelBuffer(make([]byte, 45), 6, 3)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}

func TestNewSourceOptions(t *testing.T) {
	s := NewSource()
	assert.Equal(t, "/dev/video0", s.device)
	assert.Equal(t, 1280, s.width)
	assert.Equal(t, 720, s.height)
	assert.Equal(t, 30, s.fps)
	assert.NotNil(t, s.Mailbox())

	mb := session.NewMailbox()
	s = NewSource(
		WithDevice("/dev/video2"),
		WithResolution(641, 481),
		WithFrameRate(60),
		WithTestPattern(),
		WithMailbox(mb),
	)
	assert.Equal(t, "/dev/video2", s.device)
	assert.Equal(t, 640, s.width)
	assert.Equal(t, 480, s.height)
	assert.Equal(t, 60, s.fps)
	assert.True(t, s.testPattern)
	assert.Same(t, mb, s.Mailbox())
	assert.NoError(t, s.Stop(), "stopping a source that never started is a no-op")
}
