package software

import "time"

// DeviceBuilderOption is a functional option for configuring a software device.
type DeviceBuilderOption func(d *device)

// WithName sets the device name reported by Name.
//
// Parameters:
//   - name: the device name
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithName(name string) DeviceBuilderOption {
	return func(d *device) {
		d.name = name
	}
}

// WithWorkers sets how many pool workers split kernel work into row bands.
// Values <= 0 fall back to runtime.NumCPU().
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithWorkers(n int) DeviceBuilderOption {
	return func(d *device) {
		d.workers = n
	}
}

// WithTaskQueueSize sets the capacity of the worker pool's task queue.
//
// Parameters:
//   - n: queue capacity
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithTaskQueueSize(n int) DeviceBuilderOption {
	return func(d *device) {
		d.taskQueueSize = n
	}
}

// WithIdleTimeout sets the pool's worker idle timeout.
//
// Parameters:
//   - timeout: how long an idle worker lingers
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithIdleTimeout(timeout time.Duration) DeviceBuilderOption {
	return func(d *device) {
		d.idleTimeout = timeout
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
