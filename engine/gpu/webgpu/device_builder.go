package webgpu

import "github.com/cogentcore/webgpu/wgpu"

// DeviceBuilderOption is a functional option for configuring a webgpu device.
type DeviceBuilderOption func(d *device)

// WithLabel sets the device label reported by Name.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithLabel(label string) DeviceBuilderOption {
	return func(d *device) {
		d.label = label
	}
}

// WithSurfaceDescriptor creates a surface for the given window handle along with the device.
//
// Parameters:
//   - desc: the platform surface descriptor, see window.Window.SurfaceDescriptor
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(d *device) {
		d.surfaceDescriptor = desc
	}
}

// WithFallbackAdapter forces the software fallback adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *device) {
		d.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the present mode surface views are configured with.
// Defaults to wgpu.PresentModeFifo.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithPresentMode(mode wgpu.PresentMode) DeviceBuilderOption {
	return func(d *device) {
		d.presentMode = mode
	}
}

// WithCommandQueueDepth sets how many committed command buffers may wait for the executor before Commit blocks.
//
// Parameters:
//   - n: the pending buffer capacity
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithCommandQueueDepth(n int) DeviceBuilderOption {
	return func(d *device) {
		d.queueDepth = n
	}
}
