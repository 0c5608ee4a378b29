package session

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/stretchr/testify/assert"
)

func assertPoint(t *testing.T, want, got common.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestDisplayTransformMatchingAspectIsRotation(t *testing.T) {
	image := common.Size{Width: 640, Height: 480}

	tr := DisplayTransform(image, common.OrientationLandscapeRight, common.Size{Width: 1280, Height: 960})
	assert.Equal(t, common.IdentityTransform(), tr)

	tr = DisplayTransform(image, common.OrientationPortrait, common.Size{Width: 480, Height: 640})
	assertPoint(t, common.Point{X: 1, Y: 0}, tr.Apply(common.Point{X: 0, Y: 0}))
	assertPoint(t, common.Point{X: 1, Y: 1}, tr.Apply(common.Point{X: 1, Y: 0}))
	assertPoint(t, common.Point{X: 0, Y: 0}, tr.Apply(common.Point{X: 0, Y: 1}))

	tr = DisplayTransform(image, common.OrientationLandscapeLeft, common.Size{Width: 640, Height: 480})
	assertPoint(t, common.Point{X: 1, Y: 1}, tr.Apply(common.Point{X: 0, Y: 0}))
}

func TestDisplayTransformFillsViewport(t *testing.T) {
	tr := DisplayTransform(common.Size{Width: 640, Height: 480}, common.OrientationLandscapeRight, common.Size{Width: 1280, Height: 480})
	assertPoint(t, common.Point{X: 0.5, Y: 0.5}, tr.Apply(common.Point{X: 0.5, Y: 0.5}))
	assertPoint(t, common.Point{X: 0.5, Y: 0}, tr.Apply(common.Point{X: 0.5, Y: 0.25}))
	assertPoint(t, common.Point{X: 0, Y: 0.5}, tr.Apply(common.Point{X: 0, Y: 0.5}))

	tr = DisplayTransform(common.Size{Width: 640, Height: 480}, common.OrientationLandscapeRight, common.Size{Width: 480, Height: 480})
	assertPoint(t, common.Point{X: -1.0 / 6, Y: 0}, tr.Apply(common.Point{X: 0, Y: 0}))
}

func TestDisplayTransformEmptySizes(t *testing.T) {
	rotate := orientationTransform(common.OrientationPortrait)
	assert.Equal(t, rotate, DisplayTransform(common.Size{}, common.OrientationPortrait, common.Size{Width: 10, Height: 10}))
	assert.Equal(t, rotate, DisplayTransform(common.Size{Width: 10, Height: 10}, common.OrientationPortrait, common.Size{}))

	var f *Frame
	assert.Equal(t, common.Size{}, f.ImageSize())
	assert.Equal(t, rotate, f.DisplayTransform(common.OrientationPortrait, common.Size{Width: 10, Height: 10}))
}
