package common

import (
	"math"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// BytesToFloat32s reinterprets a byte slice as float32 values without copying.
// Trailing bytes that do not fill a whole float32 are ignored.
//
// Parameters:
//   - data: source bytes, expected to be 4-byte aligned
//
// Returns:
//   - []float32: a view sharing memory with data, or nil if data is too short
func BytesToFloat32s(data []byte) []float32 {
	n := len(data) / 4
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
}

// CeilDiv returns ceil(n/d) for positive d.
//
// Parameters:
//   - n: dividend
//   - d: divisor, must be > 0
//
// Returns:
//   - int: the rounded-up quotient
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float32) float32 {
	return float32(math.Max(0, math.Min(1, float64(v))))
}

// UnormToByte converts a normalized float in [0, 1] to an 8-bit unorm value with rounding.
func UnormToByte(v float32) uint8 {
	return uint8(Clamp01(v)*255 + 0.5)
}
