package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/stretchr/testify/assert"
)

func TestResizedForwardsNonEmptySizes(t *testing.T) {
	w := &engineWindow{}
	var got []common.Size
	w.SetResizeCallback(func(size common.Size) { got = append(got, size) })

	w.resized(800, 600)
	w.resized(0, 0)
	w.resized(1024, 768)

	assert.Equal(t, []common.Size{{Width: 800, Height: 600}, {Width: 1024, Height: 768}}, got)
	assert.Equal(t, common.Size{Width: 1024, Height: 768}, w.Size())
}

func TestKeyEvent(t *testing.T) {
	w := &engineWindow{}
	var down, up []uint32
	w.SetKeyDownCallback(func(k uint32) { down = append(down, k) })
	w.SetKeyUpCallback(func(k uint32) { up = append(up, k) })

	assert.False(t, w.keyEvent(common.KeyS, true))
	assert.False(t, w.keyEvent(common.KeyS, false))
	assert.False(t, w.keyEvent(common.KeyEsc, false))
	assert.True(t, w.keyEvent(common.KeyEsc, true))

	assert.Equal(t, []uint32{common.KeyS}, down)
	assert.Equal(t, []uint32{common.KeyS}, up)
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}
