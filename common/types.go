package common

import (
	"fmt"
	"strings"
)

// Orientation is the interface orientation the composite is displayed in.
// The camera sensor's native orientation is OrientationLandscapeRight.
type Orientation int

const (
	OrientationPortrait Orientation = iota
	OrientationPortraitUpsideDown
	OrientationLandscapeLeft
	OrientationLandscapeRight
)

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationPortraitUpsideDown:
		return "portrait-upside-down"
	case OrientationLandscapeLeft:
		return "landscape-left"
	case OrientationLandscapeRight:
		return "landscape-right"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// IsPortrait reports whether the orientation rotates the sensor image by 90 degrees.
func (o Orientation) IsPortrait() bool {
	return o == OrientationPortrait || o == OrientationPortraitUpsideDown
}

// ParseOrientation converts a name produced by Orientation.String back to an Orientation.
//
// Parameters:
//   - s: the orientation name, case-insensitive
//
// Returns:
//   - Orientation: the parsed orientation
//   - error: error if the name is unknown
func ParseOrientation(s string) (Orientation, error) {
	for _, o := range []Orientation{OrientationPortrait, OrientationPortraitUpsideDown, OrientationLandscapeLeft, OrientationLandscapeRight} {
		if strings.EqualFold(s, o.String()) {
			return o, nil
		}
	}
	return OrientationPortrait, fmt.Errorf("unknown orientation %q", s)
}
