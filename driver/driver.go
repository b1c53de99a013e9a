// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package driver defines the device-side boundary of the
// presentation pipeline.
// It is designed so that platform-specific APIs can be
// implemented in a mostly straightforward manner, and so
// that the pipeline itself can be tested against fake
// devices.
package driver

import "errors"

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the device is in an unrecoverable
// state (e.g., it was lost). Upon encountering such an
// error, the application must destroy everything that it
// created using the device and rebuild the rendering
// context from scratch, or terminate.
var ErrFatal = errors.New("driver: fatal error")

// ErrWindow represents an error related to a specific
// window. This error usually indicates that a window
// misconfiguration is preventing correct operation.
var ErrWindow = errors.New("driver: window-related error")

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Device is the interface to the logical device that the
// presentation pipeline drives.
// Queue selection, memory allocation and surface creation
// happen behind this boundary.
type Device interface {
	// Surface describes the presentable surface.
	// The platform guarantees that the format and mode
	// lists of a valid surface are non-empty, and that
	// the FIFO present mode is always among the modes.
	Surface() (SurfaceInfo, error)

	// QueueFamilies returns the graphics and presentation
	// queue family indices. They may differ, in which case
	// swapchain images require concurrent sharing.
	QueueFamilies() (graphics, present int)

	// FindSupportedFormat returns the first format in prefs
	// that the device supports for optimal-tiling
	// depth/stencil attachment use.
	FindSupportedFormat(prefs []PixelFmt) (PixelFmt, error)

	// NewSwapchain creates a new swapchain.
	// info.Old, when non-nil, is used only as a creation
	// hint; the device does not retain it.
	NewSwapchain(info *SwapchainInfo) (Swapchain, error)

	// NewRenderPass creates a new render pass comprising a
	// single subpass and a single dependency from work
	// submitted before the pass to the subpass itself.
	NewRenderPass(att []Attachment, sub Subpass, dep Dependency) (RenderPass, error)

	// NewDepthImage creates a new 2D image backed by
	// device-local memory, for use as a depth/stencil
	// attachment. The backing memory is owned by the
	// image and released by its Destroy method.
	NewDepthImage(pf PixelFmt, size Dim2D) (Image, error)

	// NewSemaphore creates a new semaphore.
	NewSemaphore() (Semaphore, error)

	// NewFence creates a new fence, optionally in the
	// signaled state.
	NewFence(signaled bool) (Fence, error)

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// Submit commits recorded command buffers to the
	// graphics queue. Execution waits for the wait
	// semaphore at the given synchronization scope,
	// signals the signal semaphore when rendering
	// completes and signals the fence when the whole
	// batch retires.
	Submit(cb []CmdBuffer, wait Semaphore, stage Sync, signal Semaphore, fence Fence) error

	// Present enqueues presentation of a swapchain image
	// on the presentation queue, gated on the given
	// semaphore.
	// It returns ErrSuboptimal or ErrOutOfDate when the
	// swapchain no longer matches the surface exactly.
	Present(sc Swapchain, index int, wait Semaphore) error

	// WaitIdle blocks until the device completes all
	// outstanding work.
	WaitIdle() error
}
