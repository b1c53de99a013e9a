// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package driver

// PixelFmt is the type of a pixel format.
type PixelFmt int

// Pixel formats.
const (
	FInvalid PixelFmt = iota
	// Color, 8-bit channels.
	RGBA8un
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	// Color, 16-bit channels.
	RGBA16f
	// Depth/Stencil.
	D16un
	D32f
	D24unS8ui
	D32fS8ui
)

// IsDepth returns whether f has a depth aspect.
func (f PixelFmt) IsDepth() bool {
	switch f {
	case D16un, D32f, D24unS8ui, D32fS8ui:
		return true
	}
	return false
}

// HasStencil returns whether f has a stencil aspect.
func (f PixelFmt) HasStencil() bool {
	switch f {
	case D24unS8ui, D32fS8ui:
		return true
	}
	return false
}

// Dim2D is a two-dimensional size.
type Dim2D struct {
	Width, Height int
}

// Off2D is a two-dimensional offset.
type Off2D struct {
	X, Y int
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	SColorOutput Sync = 1 << iota
	SDSOutput
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AColorRead Access = 1 << iota
	AColorWrite
	ADSRead
	ADSWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LColorTarget
	LDSTarget
	LPresent
)

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LDontCare LoadOp = iota
	LClear
	LLoad
)

// StoreOp is the type of an attachment's store operation.
type StoreOp int

// Store operations.
const (
	SDontCare StoreOp = iota
	SStore
)

// Attachment describes the configuration of a single
// render target for use in a render pass.
// The second element of the Load and Store arrays refers
// to the stencil aspect and is ignored for color formats.
type Attachment struct {
	Format  PixelFmt
	Samples int
	Load    [2]LoadOp
	Store   [2]StoreOp
	Initial Layout
	Final   Layout
}

// Subpass defines the subpass of a render pass.
// The Color and DS fields contain indices in the render
// pass' attachment list. DS is -1 when the subpass has no
// depth/stencil attachment.
type Subpass struct {
	Color []int
	DS    int
}

// Dependency is an execution and memory dependency between
// work submitted before a render pass and the pass' subpass.
// It is what makes back-to-back reuse of the same attachments
// safe without a separate barrier.
type Dependency struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// ClearValue defines clear values for color or depth/stencil
// aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// Viewport defines the bounds of a viewport.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
	Znear  float32
	Zfar   float32
}

// Image is the interface that defines a GPU image.
// Images obtained from a Device own their backing memory;
// images obtained from a Swapchain do not.
type Image interface {
	Destroyer

	// NewView creates a new 2D view of the image's only
	// mip level and layer.
	// All views created from a given image must be
	// destroyed before the image itself is destroyed.
	NewView() (ImageView, error)
}

// ImageView is the interface that defines a typed view of
// an Image resource.
type ImageView interface {
	Destroyer
}

// RenderPass is the interface that defines a render pass
// into which draw commands operate.
type RenderPass interface {
	Destroyer

	// NewFB creates a new framebuffer.
	// Each image view in iv corresponds to the render
	// pass' attachment of same index. All framebuffers
	// created from a given render pass must be destroyed
	// before the render pass itself is destroyed.
	NewFB(iv []ImageView, width, height int) (Framebuf, error)
}

// Framebuf is the interface that defines the render targets
// of a render pass.
type Framebuf interface {
	Destroyer
}

// Semaphore is the interface that defines a GPU-side
// synchronization primitive ordering queue operations.
// Semaphores cannot be waited on by the host.
type Semaphore interface {
	Destroyer
}

// Fence is the interface that defines a host-waitable GPU
// completion signal.
type Fence interface {
	Destroyer

	// Wait blocks until the fence is signaled.
	// The wait is unbounded; tests substitute bounded
	// fakes.
	Wait() error

	// Reset returns the fence to the unsignaled state.
	Reset() error
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded between Begin and End and later
// committed through Device.Submit. A render pass instance
// is recorded between BeginPass and EndPass.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	Begin() error

	// End completes recording.
	End() error

	// BeginPass begins a render pass instance targeting
	// the given framebuffer. clear contains one entry per
	// render pass attachment.
	BeginPass(pass RenderPass, fb Framebuf, size Dim2D, clear []ClearValue)

	// EndPass ends the current render pass instance.
	EndPass()

	// SetViewport sets the viewport transform.
	SetViewport(vp Viewport)

	// SetScissor sets the scissor rectangle.
	SetScissor(off Off2D, size Dim2D)
}
