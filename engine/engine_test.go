package engine

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/software"
	"github.com/Carmen-Shannon/oxy-halo/engine/matte"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/Carmen-Shannon/oxy-halo/engine/snapshot"
	"github.com/Carmen-Shannon/oxy-halo/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer counts frames and records resizes.
type fakeRenderer struct {
	mu      sync.Mutex
	frames  int
	resizes []common.Size
	failAt  int
	panicAt int
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) Resize(size common.Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizes = append(r.resizes, size)
}

func (r *fakeRenderer) RenderFrame(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	if r.panicAt > 0 && r.frames == r.panicAt {
		panic("encoder exploded")
	}
	if r.failAt > 0 && r.frames == r.failAt {
		return errors.New("device lost")
	}
	return ctx.Err()
}

func (r *fakeRenderer) Stats() renderer.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return renderer.Stats{Submitted: uint64(r.frames)}
}

func (r *fakeRenderer) Wait(context.Context) error         { return nil }
func (r *fakeRenderer) Halos() (white, yellow gpu.Texture) { return nil, nil }
func (r *fakeRenderer) Close() error                       { return nil }

// fakeWindow runs its message loop until closed.
type fakeWindow struct {
	mu        sync.Mutex
	running   bool
	onUpdate  func()
	onResize  func(common.Size)
	onKeyDown func(uint32)
	closes    int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(cb func())            { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(common.Size)) { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(uint32))     { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(func(uint32))              {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Size() common.Size                          { return common.Size{Width: 4, Height: 4} }

func (w *fakeWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	w.closes++
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for w.IsRunning() {
		w.onUpdate()
	}
}

// resizeView records Resize calls.
type resizeView struct {
	gpu.View
	sizes []common.Size
}

func (v *resizeView) Resize(size common.Size) error {
	v.sizes = append(v.sizes, size)
	return nil
}

func TestNewEngineValidates(t *testing.T) {
	_, err := NewEngine(nil, WithMaxFrames(1))
	assert.Error(t, err)

	_, err = NewEngine(&fakeRenderer{})
	assert.Error(t, err, "headless needs a frame count")
}

func TestHeadlessRunStopsAtFrameLimit(t *testing.T) {
	r := &fakeRenderer{}
	e, err := NewEngine(r, WithMaxFrames(5), WithProfiling(true))
	require.NoError(t, err)

	var callbacks int
	e.SetRenderCallback(func(float32) { callbacks++ })
	require.NoError(t, e.Run())
	assert.Equal(t, uint64(5), e.Frames())
	assert.Equal(t, 5, r.frames)
	assert.Equal(t, 5, callbacks)

	assert.Error(t, e.Run(), "an engine runs once")
}

func TestRenderErrorStopsEngine(t *testing.T) {
	r := &fakeRenderer{failAt: 3}
	e, err := NewEngine(r, WithMaxFrames(10))
	require.NoError(t, err)

	err = e.Run()
	assert.EqualError(t, err, "device lost")
	assert.Equal(t, uint64(2), e.Frames())
}

func TestRenderPanicIsRecovered(t *testing.T) {
	r := &fakeRenderer{panicAt: 2}
	e, err := NewEngine(r, WithMaxFrames(10))
	require.NoError(t, err)

	err = e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder exploded")
	assert.Equal(t, uint64(1), e.Frames())
}

func TestWindowResizeAndKeys(t *testing.T) {
	r := &fakeRenderer{}
	w := &fakeWindow{running: true}
	view := &resizeView{}
	e, err := NewEngine(r, WithWindow(w), WithView(view), WithMaxFrames(3))
	require.NoError(t, err)
	impl := e.(*engine)

	w.onResize(common.Size{Width: 300, Height: 200})
	w.onResize(common.Size{Width: 640, Height: 480})

	w.onKeyDown(common.KeySpace)
	assert.True(t, impl.paused.Load())
	w.onKeyDown(common.KeySpace)
	assert.False(t, impl.paused.Load())

	w.onKeyDown(common.KeyS)
	assert.False(t, impl.snapshotRequested.Load(), "no writer configured")

	require.NoError(t, e.Run())
	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, []common.Size{{Width: 640, Height: 480}}, r.resizes, "only the latest size is applied")
	assert.Equal(t, []common.Size{{Width: 640, Height: 480}}, view.sizes)
	assert.Equal(t, 1, w.closes)
	assert.False(t, w.IsRunning())
}

func TestHeadlessSoftwareRunWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "subject.png")
	mattePath := filepath.Join(dir, "matte.png")
	require.NoError(t, imaging.Save(imaging.New(32, 16, color.NRGBA{R: 40, G: 120, B: 200, A: 255}), imagePath))
	require.NoError(t, imaging.Save(imaging.New(32, 16, color.White), mattePath))

	source, err := session.NewStillSource(imagePath, session.WithMattePath(mattePath))
	require.NoError(t, err)

	device := software.NewDevice(software.WithWorkers(2))
	defer device.Release()
	view, err := software.NewOffscreenView(common.Size{Width: 16, Height: 16}, 2)
	require.NoError(t, err)

	r, err := renderer.NewRenderer(device, source.Mailbox(), matte.NewFrameMatte(device, matte.ResolutionHalf), view)
	require.NoError(t, err)
	defer r.Close()

	out := filepath.Join(dir, "out")
	writer, err := snapshot.NewWriter(out)
	require.NoError(t, err)

	e, err := NewEngine(r, WithSource(source), WithView(view), WithMaxFrames(4), WithSnapshots(writer))
	require.NoError(t, err)
	require.NoError(t, e.Run())

	for _, name := range []string{"white-halo", "yellow-halo", "composite"} {
		matches, err := filepath.Glob(filepath.Join(out, name+"-*.png"))
		require.NoError(t, err)
		require.Len(t, matches, 1, name)
		info, err := os.Stat(matches[0])
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, uint64(4), r.Stats().Submitted)
}
