package session

import "github.com/Carmen-Shannon/oxy-halo/common"

// orientationTransform rotates normalized sensor coordinates, whose native orientation is
// landscape right, into the given interface orientation.
func orientationTransform(o common.Orientation) common.AffineTransform {
	switch o {
	case common.OrientationPortrait:
		return common.AffineTransform{A: 0, B: 1, C: -1, D: 0, Tx: 1, Ty: 0}
	case common.OrientationPortraitUpsideDown:
		return common.AffineTransform{A: 0, B: -1, C: 1, D: 0, Tx: 0, Ty: 1}
	case common.OrientationLandscapeLeft:
		return common.AffineTransform{A: -1, B: 0, C: 0, D: -1, Tx: 1, Ty: 1}
	default:
		return common.IdentityTransform()
	}
}

// DisplayTransform builds the normalized image-to-view transform for an image of imageSize
// shown in a viewport with the given orientation. The image is rotated first and then scaled
// about the view center so it covers the viewport.
//
// Parameters:
//   - imageSize: captured image size in pixels
//   - orientation: interface orientation
//   - viewport: viewport size in pixels
//
// Returns:
//   - common.AffineTransform: the image-to-view transform
func DisplayTransform(imageSize common.Size, orientation common.Orientation, viewport common.Size) common.AffineTransform {
	rotate := orientationTransform(orientation)
	if imageSize.Empty() || viewport.Empty() {
		return rotate
	}

	w, h := float64(imageSize.Width), float64(imageSize.Height)
	if orientation.IsPortrait() {
		w, h = h, w
	}
	imageAspect := w / h
	viewAspect := float64(viewport.Width) / float64(viewport.Height)

	sx, sy := 1.0, 1.0
	if imageAspect > viewAspect {
		sx = imageAspect / viewAspect
	} else {
		sy = viewAspect / imageAspect
	}

	fill := common.TranslateTransform(-0.5, -0.5).
		Concat(common.ScaleTransform(sx, sy)).
		Concat(common.TranslateTransform(0.5, 0.5))
	return rotate.Concat(fill)
}
