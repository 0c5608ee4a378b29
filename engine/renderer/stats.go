package renderer

import "sync/atomic"

// Stats is a snapshot of the renderer's counters.
type Stats struct {
	// Submitted counts committed command buffers, one per RenderFrame that acquired a slot.
	Submitted uint64
	// Completed counts command buffers whose completion handler ran.
	Completed uint64
	// Failed counts completed command buffers that reported an execution error.
	Failed uint64
	// Composited counts frames that encoded the composite draw.
	Composited uint64

	// NoFrame counts frames dropped because the session had no current frame.
	NoFrame uint64
	// NoPlanes counts frames whose pixel buffer had too few planes or whose plane textures failed.
	NoPlanes uint64
	// NoMatte counts frames without a segmentation matte.
	NoMatte uint64
	// NoTarget counts frames dropped because the view had no drawable.
	NoTarget uint64

	// HaloAllocations counts halo texture (re)allocations.
	HaloAllocations uint64
	// TexCoordUpdates counts consumed resizes.
	TexCoordUpdates uint64

	// Clock is the animation clock.
	Clock uint64
	// WhiteKernel and YellowKernel are the last encoded blur kernel sizes.
	WhiteKernel, YellowKernel int

	// InFlight is the number of submissions not yet completed.
	InFlight int64
	// PeakInFlight is the highest InFlight observed.
	PeakInFlight int64
}

type stats struct {
	submitted, completed, failed, composited atomic.Uint64
	noFrame, noPlanes, noMatte, noTarget     atomic.Uint64
	haloAllocations, texCoordUpdates         atomic.Uint64
	whiteKernel, yellowKernel                atomic.Int64
}
