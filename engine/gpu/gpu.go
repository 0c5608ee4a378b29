package gpu

import "github.com/Carmen-Shannon/oxy-halo/common"

// Device is the entry point of a GPU backend.
// It creates every other resource and owns the backend's execution context.
type Device interface {
	// Name returns a human readable adapter name.
	//
	// Returns:
	//   - string: the device name
	Name() string

	// NewCommandQueue creates a queue that executes committed command buffers in commit order.
	//
	// Returns:
	//   - CommandQueue: the new queue
	//   - error: error if the queue could not be created
	NewCommandQueue() (CommandQueue, error)

	// NewBuffer creates a CPU visible buffer initialized with a copy of data.
	//
	// Parameters:
	//   - data: initial contents, its length is the buffer length
	//   - label: debug label
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: ErrInvalidSize if data is empty
	NewBuffer(data []byte, label string) (Buffer, error)

	// NewTexture allocates a texture. Contents are undefined until written.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: error if the descriptor is invalid or allocation fails
	NewTexture(desc TextureDescriptor) (Texture, error)

	// NewTextureCache creates a cache that turns pixel buffer planes into textures.
	//
	// Returns:
	//   - TextureCache: the new cache
	//   - error: error if the cache could not be created
	NewTextureCache() (TextureCache, error)

	// DefaultLibrary returns the library of built-in shader functions.
	//
	// Returns:
	//   - Library: the function library
	//   - error: error if the library could not be loaded
	DefaultLibrary() (Library, error)

	// NewRenderPipelineState compiles a render pipeline.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - RenderPipelineState: the compiled pipeline
	//   - error: error if the functions are missing or incompatible
	NewRenderPipelineState(desc RenderPipelineDescriptor) (RenderPipelineState, error)

	// NewComputePipelineState compiles a compute pipeline around a kernel function.
	//
	// Parameters:
	//   - fn: a function with FunctionStageKernel
	//
	// Returns:
	//   - ComputePipelineState: the compiled pipeline
	//   - error: error if fn is not a kernel
	NewComputePipelineState(fn Function) (ComputePipelineState, error)

	// NewImageTent creates an in-place tent (triangle) filter of the given odd kernel size.
	//
	// Parameters:
	//   - kernelWidth: horizontal kernel size, must be odd and positive
	//   - kernelHeight: vertical kernel size, must be odd and positive
	//
	// Returns:
	//   - ImageKernel: the filter
	//   - error: ErrInvalidSize if a size is not odd and positive
	NewImageTent(kernelWidth, kernelHeight int) (ImageKernel, error)

	// Release frees the device. Outstanding work is not waited for.
	Release()
}

// Texture is an opaque handle to image memory owned by a device.
// Handles must be released explicitly; releasing a cache texture only drops the caller's reference.
type Texture interface {
	// Label returns the debug label.
	Label() string

	// Width returns the width in texels.
	Width() int

	// Height returns the height in texels.
	Height() int

	// Format returns the texel format.
	Format() PixelFormat

	// Usage returns the usage flags the texture was created with.
	Usage() TextureUsage

	// ReplaceRegion overwrites the whole texture from tightly or loosely packed rows.
	//
	// Parameters:
	//   - data: source texels in the texture's format
	//   - bytesPerRow: stride of data in bytes
	//
	// Returns:
	//   - error: ErrInvalidSize if data is too short, ErrReleased if the texture was released
	ReplaceRegion(data []byte, bytesPerRow int) error

	// Release drops the handle.
	Release()
}

// TextureReader is implemented by textures whose contents can be read back on the CPU.
type TextureReader interface {
	// ReadPixels returns a tightly packed copy of the texture contents.
	//
	// Returns:
	//   - []byte: width*height*bytesPerPixel bytes
	//   - error: ErrReleased if the texture was released
	ReadPixels() ([]byte, error)
}

// Buffer is CPU visible memory the GPU reads vertex data from.
type Buffer interface {
	// Label returns the debug label.
	Label() string

	// Len returns the buffer length in bytes.
	Len() int

	// Contents returns the CPU copy of the buffer. Writes become visible to the GPU after DidModify.
	Contents() []byte

	// DidModify publishes CPU writes to Contents to the device.
	DidModify()

	// Release frees the buffer.
	Release()
}

// Function is a named shader entry point from a Library.
type Function interface {
	// Name returns the function name used to look it up.
	Name() string

	// Stage returns the pipeline stage the function runs in.
	Stage() FunctionStage
}

// Library resolves shader functions by name.
type Library interface {
	// Function looks up a function.
	//
	// Parameters:
	//   - name: the function name
	//
	// Returns:
	//   - Function: the function
	//   - error: ErrFunctionNotFound if the library has no such function
	Function(name string) (Function, error)

	// FunctionNames lists every function in the library.
	FunctionNames() []string
}

// RenderPipelineState is a compiled render pipeline.
type RenderPipelineState interface {
	Label() string
}

// ComputePipelineState is a compiled compute pipeline.
type ComputePipelineState interface {
	Label() string

	// MaxTotalThreadsPerThreadgroup returns the largest threadgroup the pipeline accepts.
	MaxTotalThreadsPerThreadgroup() int
}

// CommandQueue hands out command buffers. Buffers execute in commit order.
type CommandQueue interface {
	// CommandBuffer creates an empty command buffer.
	//
	// Returns:
	//   - CommandBuffer: the new buffer
	//   - error: error if the queue cannot create more buffers
	CommandBuffer() (CommandBuffer, error)
}

// CommandBuffer records GPU work for a single submission.
// Encoders are created one at a time and must be ended before the next is created.
type CommandBuffer interface {
	// Label returns the debug label.
	Label() string

	// AddCompletedHandler registers a function run once the GPU finished executing the buffer.
	// Handlers run on a backend goroutine, not the committing goroutine, in registration order.
	//
	// Parameters:
	//   - handler: the function to run
	AddCompletedHandler(handler func(CommandBuffer))

	// ComputeCommandEncoder starts a compute pass.
	//
	// Returns:
	//   - ComputeCommandEncoder: the pass encoder
	//   - error: ErrCommitted if the buffer was already committed
	ComputeCommandEncoder() (ComputeCommandEncoder, error)

	// RenderCommandEncoder starts a render pass.
	//
	// Parameters:
	//   - desc: the pass descriptor naming the color attachment
	//
	// Returns:
	//   - RenderCommandEncoder: the pass encoder
	//   - error: ErrCommitted if the buffer was already committed
	RenderCommandEncoder(desc *RenderPassDescriptor) (RenderCommandEncoder, error)

	// Present schedules the drawable to be shown after the buffer executes.
	//
	// Parameters:
	//   - drawable: the drawable to present
	Present(drawable Drawable)

	// Commit submits the buffer for execution. Calling Commit more than once has no effect.
	Commit()

	// Status returns the lifecycle status.
	Status() CommandBufferStatus

	// Err returns the execution error, if any, once the buffer completed.
	Err() error
}

// ComputeCommandEncoder records compute dispatches.
type ComputeCommandEncoder interface {
	// SetComputePipelineState selects the pipeline used by following dispatches.
	SetComputePipelineState(state ComputePipelineState)

	// SetTexture binds a texture to the kernel's texture argument table.
	//
	// Parameters:
	//   - texture: the texture to bind, nil unbinds
	//   - index: the argument index
	SetTexture(texture Texture, index int)

	// DispatchThreadgroups runs the kernel over a grid of threadgroups.
	//
	// Parameters:
	//   - threadgroups: the number of groups per dimension
	//   - threadsPerThreadgroup: the number of threads per group per dimension
	DispatchThreadgroups(threadgroups, threadsPerThreadgroup Size3D)

	// EndEncoding finishes the pass.
	EndEncoding()
}

// RenderCommandEncoder records draws into a render pass.
type RenderCommandEncoder interface {
	// SetRenderPipelineState selects the pipeline used by following draws.
	SetRenderPipelineState(state RenderPipelineState)

	// SetCullMode selects which faces are discarded.
	SetCullMode(mode CullMode)

	// SetVertexBuffer binds a vertex buffer. The bound contents are those at encode time.
	//
	// Parameters:
	//   - buffer: the vertex buffer
	//   - offset: byte offset into the buffer
	//   - index: the buffer argument index
	SetVertexBuffer(buffer Buffer, offset, index int)

	// SetFragmentTexture binds a texture to the fragment function's texture argument table.
	//
	// Parameters:
	//   - texture: the texture to bind, nil unbinds
	//   - index: the argument index
	SetFragmentTexture(texture Texture, index int)

	// DrawPrimitives draws non-indexed primitives.
	//
	// Parameters:
	//   - primitive: the topology
	//   - vertexStart: the first vertex
	//   - vertexCount: the number of vertices
	DrawPrimitives(primitive PrimitiveType, vertexStart, vertexCount int)

	// EndEncoding finishes the pass.
	EndEncoding()
}

// ImageKernel is an image filter encoded into a command buffer.
type ImageKernel interface {
	// EncodeInPlace filters texture in place.
	//
	// Parameters:
	//   - cmd: the command buffer to encode into
	//   - texture: the texture to filter, needs ShaderRead and ShaderWrite usage
	//
	// Returns:
	//   - error: error if the texture cannot be filtered in place
	EncodeInPlace(cmd CommandBuffer, texture Texture) error
}

// TextureCache converts pixel buffer planes into textures, reusing allocations across frames.
type TextureCache interface {
	// TextureFromImage returns a texture for one plane of buf.
	//
	// Parameters:
	//   - buf: the pixel buffer
	//   - format: the texture format, its size must match the plane's bytes per pixel
	//   - plane: the plane index
	//
	// Returns:
	//   - Texture: the plane texture, to be released by the caller
	//   - error: ErrPlaneOutOfRange, ErrUnsupportedFormat or ErrInvalidSize
	TextureFromImage(buf *PixelBuffer, format PixelFormat, plane int) (Texture, error)

	// Flush drops cached allocations that are not referenced.
	Flush()
}

// Drawable is a presentable texture from a View.
type Drawable interface {
	// Texture returns the texture to render into.
	Texture() Texture

	// Present shows the drawable immediately. CommandBuffer.Present is preferred.
	Present()
}

// View is the render target the compositor draws into, a window surface or an offscreen swapchain.
type View interface {
	// CurrentRenderPassDescriptor returns a pass descriptor targeting the current drawable, or nil if none is available.
	CurrentRenderPassDescriptor() *RenderPassDescriptor

	// CurrentDrawable returns the drawable for this frame, or nil if none is available.
	CurrentDrawable() Drawable

	// DrawableSize returns the drawable size in pixels.
	DrawableSize() common.Size
}
