package common

import "math"

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Point is a 2D point in normalized or pixel space.
type Point struct {
	X float64
	Y float64
}

// AffineTransform is a 2D affine transform laid out like a 3x3 matrix
//
//	| A  B  0 |
//	| C  D  0 |
//	| Tx Ty 1 |
//
// so that a point p maps to (A*x + C*y + Tx, B*x + D*y + Ty).
type AffineTransform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// IdentityTransform returns the identity transform.
func IdentityTransform() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// ScaleTransform returns a transform scaling by sx, sy.
func ScaleTransform(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// TranslateTransform returns a transform translating by tx, ty.
func TranslateTransform(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, Tx: tx, Ty: ty}
}

// Apply maps p through the transform.
//
// Parameters:
//   - p: the point to transform
//
// Returns:
//   - Point: the transformed point
func (t AffineTransform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.Tx,
		Y: t.B*p.X + t.D*p.Y + t.Ty,
	}
}

// Concat returns the transform that applies t first and then u.
//
// Parameters:
//   - u: the transform applied after t
//
// Returns:
//   - AffineTransform: the combined transform
func (t AffineTransform) Concat(u AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		Tx: t.Tx*u.A + t.Ty*u.C + u.Tx,
		Ty: t.Tx*u.B + t.Ty*u.D + u.Ty,
	}
}

// Determinant returns A*D - B*C.
func (t AffineTransform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse transform.
// A singular transform is returned unchanged.
//
// Returns:
//   - AffineTransform: the inverse, or t itself if t is not invertible
func (t AffineTransform) Invert() AffineTransform {
	det := t.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return t
	}
	inv := 1 / det
	return AffineTransform{
		A:  t.D * inv,
		B:  -t.B * inv,
		C:  -t.C * inv,
		D:  t.A * inv,
		Tx: (t.C*t.Ty - t.D*t.Tx) * inv,
		Ty: (t.B*t.Tx - t.A*t.Ty) * inv,
	}
}
