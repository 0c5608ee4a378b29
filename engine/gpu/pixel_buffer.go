package gpu

import "fmt"

// Plane is one component image of a planar pixel buffer.
type Plane struct {
	Width         int
	Height        int
	BytesPerPixel int
	BytesPerRow   int
	Data          []byte
}

// PixelBuffer is a planar image in CPU memory.
// Camera frames use two planes: luma (1 byte per pixel) and interleaved CbCr at half resolution (2 bytes per pixel).
type PixelBuffer struct {
	Planes []Plane
}

// PlaneCount returns the number of planes.
func (b *PixelBuffer) PlaneCount() int {
	if b == nil {
		return 0
	}
	return len(b.Planes)
}

// Plane returns the plane at index i.
//
// Parameters:
//   - i: the plane index
//
// Returns:
//   - Plane: the plane
//   - error: ErrPlaneOutOfRange if i is not a valid plane index
func (b *PixelBuffer) Plane(i int) (Plane, error) {
	if i < 0 || i >= b.PlaneCount() {
		return Plane{}, fmt.Errorf("plane %d of %d: %w", i, b.PlaneCount(), ErrPlaneOutOfRange)
	}
	return b.Planes[i], nil
}

// Width returns the width of plane 0, the full-resolution image width.
func (b *PixelBuffer) Width() int {
	if b.PlaneCount() == 0 {
		return 0
	}
	return b.Planes[0].Width
}

// Height returns the height of plane 0.
func (b *PixelBuffer) Height() int {
	if b.PlaneCount() == 0 {
		return 0
	}
	return b.Planes[0].Height
}

// NewBiPlanarBuffer allocates a zeroed 4:2:0 bi-planar YCbCr buffer (NV12 layout).
//
// Parameters:
//   - width: luma width in pixels
//   - height: luma height in pixels
//
// Returns:
//   - *PixelBuffer: buffer with a luma plane and a half-resolution CbCr plane
func NewBiPlanarBuffer(width, height int) *PixelBuffer {
	cw, ch := (width+1)/2, (height+1)/2
	return &PixelBuffer{
		Planes: []Plane{
			{Width: width, Height: height, BytesPerPixel: 1, BytesPerRow: width, Data: make([]byte, width*height)},
			{Width: cw, Height: ch, BytesPerPixel: 2, BytesPerRow: cw * 2, Data: make([]byte, cw*ch*2)},
		},
	}
}
