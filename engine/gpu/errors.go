package gpu

import "errors"

var (
	// ErrFunctionNotFound is returned when a library has no function with the requested name.
	ErrFunctionNotFound = errors.New("gpu: function not found")

	// ErrUnsupportedFormat is returned when a pixel format cannot serve the requested use.
	ErrUnsupportedFormat = errors.New("gpu: unsupported pixel format")

	// ErrPlaneOutOfRange is returned when a pixel buffer has no plane at the requested index.
	ErrPlaneOutOfRange = errors.New("gpu: plane index out of range")

	// ErrInvalidSize is returned for zero or negative texture and buffer dimensions.
	ErrInvalidSize = errors.New("gpu: invalid size")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource released")

	// ErrCommitted is returned when encoding into a command buffer that was already committed.
	ErrCommitted = errors.New("gpu: command buffer already committed")
)
