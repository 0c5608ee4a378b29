package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrientation(t *testing.T) {
	for _, o := range []Orientation{OrientationPortrait, OrientationPortraitUpsideDown, OrientationLandscapeLeft, OrientationLandscapeRight} {
		got, err := ParseOrientation(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	got, err := ParseOrientation("Landscape-Left")
	require.NoError(t, err)
	assert.Equal(t, OrientationLandscapeLeft, got)

	_, err = ParseOrientation("sideways")
	assert.Error(t, err)
	assert.Equal(t, "orientation(9)", Orientation(9).String())
}

func TestIsPortrait(t *testing.T) {
	assert.True(t, OrientationPortrait.IsPortrait())
	assert.True(t, OrientationPortraitUpsideDown.IsPortrait())
	assert.False(t, OrientationLandscapeLeft.IsPortrait())
	assert.False(t, OrientationLandscapeRight.IsPortrait())
}
