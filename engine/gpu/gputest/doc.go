// Package gputest provides a recording gpu.Device for tests.
//
// Command buffers record every encoded command instead of executing it. Completion is
// either immediate on Commit (the default) or manual, in which case tests decide when
// the "GPU" finishes by calling Device.Complete.
package gputest
