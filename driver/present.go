// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package driver

import "errors"

// ErrOutOfDate means that the swapchain no longer matches
// the surface and cannot be used to present.
// The caller is expected to recreate the swapchain using
// the current instance as predecessor.
var ErrOutOfDate = errors.New("driver: swapchain out of date")

// ErrSuboptimal means that the swapchain still matches the
// surface well enough to present, but no longer exactly.
// Operations that report it did succeed; the caller may
// finish the frame and recreate afterwards.
var ErrSuboptimal = errors.New("driver: swapchain suboptimal")

// ColorSpace is the type of a surface color space.
type ColorSpace int

// Color spaces.
const (
	CSRGBNonlinear ColorSpace = iota
	CSRGBLinear
	CDisplayP3Nonlinear
)

// SurfaceFormat pairs a pixel format with the color space
// the presentation engine interprets it in.
type SurfaceFormat struct {
	Format     PixelFmt
	ColorSpace ColorSpace
}

// PresentMode is the type of a surface presentation mode.
type PresentMode int

// Presentation modes.
// FIFO is strict vertical sync and is always supported.
// Mailbox replaces the queued image instead of blocking,
// giving low latency without tearing.
const (
	FIFO PresentMode = iota
	FIFORelaxed
	Mailbox
	Immediate
)

// String returns the name of the presentation mode.
func (m PresentMode) String() string {
	switch m {
	case FIFO:
		return "FIFO"
	case FIFORelaxed:
		return "FIFO relaxed"
	case Mailbox:
		return "mailbox"
	case Immediate:
		return "immediate"
	}
	return "invalid"
}

// Capabilities describes what the surface supports.
// A MaxImageCount of zero means the image count is only
// bounded by memory.
// A CurrentExtent of (-1, -1) means the surface extent
// will be determined by the swapchain; any other value is
// mandatory and must be used verbatim.
type Capabilities struct {
	MinImageCount int
	MaxImageCount int
	CurrentExtent Dim2D
	MinExtent     Dim2D
	MaxExtent     Dim2D
}

// SurfaceInfo aggregates the device-reported properties of
// the presentable surface.
type SurfaceInfo struct {
	Capabilities Capabilities
	Formats      []SurfaceFormat
	Modes        []PresentMode
}

// SwapchainInfo describes a swapchain to be created.
type SwapchainInfo struct {
	// MinImageCount is the minimum number of presentable
	// images. The device may create more.
	MinImageCount int
	Format        SurfaceFormat
	Extent        Dim2D
	Mode          PresentMode
	// Old, when non-nil, is a predecessor swapchain passed
	// to the platform as a hint for smoother transition.
	// It is borrowed for the duration of the creation call
	// only.
	Old Swapchain
}

// Swapchain is the interface that defines a device-managed
// ring of presentable images.
type Swapchain interface {
	Destroyer

	// Images returns the swapchain's images, in index
	// order. The images are owned by the swapchain.
	// This value remains unchanged for the lifetime of
	// the swapchain.
	Images() []Image

	// Next returns the index of the next presentable
	// image. sem is signaled when the image is actually
	// free for writing.
	// A valid index is returned alongside ErrSuboptimal;
	// ErrOutOfDate means no image was acquired.
	Next(sem Semaphore) (int, error)
}
