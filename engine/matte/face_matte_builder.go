package matte

// FaceMatteBuilderOption is a functional option for configuring a FaceMatte.
type FaceMatteBuilderOption func(g *FaceMatte)

// WithMinFaceSize sets the smallest face, in detection pixels, the cascade looks for.
//
// Parameters:
//   - size: minimum face size
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithMinFaceSize(size int) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.minSize = size
	}
}

// WithQualityThreshold drops detections scoring below q.
//
// Parameters:
//   - q: minimum detection score
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithQualityThreshold(q float32) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.quality = q
	}
}

// WithDetectionWidth downscales the luma plane to this width before detection. Zero detects at full size.
//
// Parameters:
//   - width: detection width in pixels
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithDetectionWidth(width int) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.detectionWidth = width
	}
}

// WithDetectEvery runs the cascade on every nth frame and reuses the last detections in between.
//
// Parameters:
//   - n: detection interval in frames, values < 1 mean every frame
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithDetectEvery(n int) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.detectEvery = max(n, 1)
	}
}

// WithFeather sets the width of the soft silhouette edge in matte pixels.
//
// Parameters:
//   - px: feather width
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithFeather(px float64) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.feather = px
	}
}

// WithResolution sets the matte size relative to the captured image.
//
// Parameters:
//   - r: the resolution
//
// Returns:
//   - FaceMatteBuilderOption: option function to apply
func WithResolution(r Resolution) FaceMatteBuilderOption {
	return func(g *FaceMatte) {
		g.resolution = r
	}
}
