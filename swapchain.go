// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package present manages the presentation pipeline of a
// real-time renderer: it negotiates a swapchain with the
// display surface, creates the per-image resources needed
// to render into it, and synchronizes GPU work with
// presentation.
package present

import "github.com/gviegas/present/driver"

// MaxFramesInFlight is the number of frame slots.
// Each slot owns one set of synchronization primitives,
// independent of the swapchain's image count.
const MaxFramesInFlight = 2

// SwapChain owns a swapchain and everything created from it:
// color views, depth resources, framebuffers, the render pass
// they are bound to, and the per-frame-slot synchronization
// primitives.
// A SwapChain is exclusively owned by a single goroutine
// driving the acquire/submit/present cycle.
type SwapChain struct {
	dev          driver.Device
	windowExtent driver.Dim2D

	sc     driver.Swapchain
	views  []driver.ImageView
	format driver.SurfaceFormat
	extent driver.Dim2D

	pass        driver.RenderPass
	depthFormat driver.PixelFmt
	depthImages []driver.Image
	depthViews  []driver.ImageView
	framebufs   []driver.Framebuf

	imageAvailable [MaxFramesInFlight]driver.Semaphore
	renderFinished [MaxFramesInFlight]driver.Semaphore
	inFlight       [MaxFramesInFlight]driver.Fence

	// imageInFlight maps an image index to the fence of the
	// frame slot currently rendering into it, or nil.
	imageInFlight []driver.Fence

	frame int
}

// New creates a new SwapChain for dev's surface.
// extent is the window's requested extent; the device may
// override it (see driver.Capabilities).
func New(dev driver.Device, extent driver.Dim2D) (*SwapChain, error) {
	return newSwapChain(dev, extent, nil)
}

// NewFrom is like New, but passes old's swapchain to the
// device as a recreation hint for smoother transition.
// old is borrowed for the duration of the call only; it is
// not retained and the caller remains responsible for
// destroying it.
func NewFrom(dev driver.Device, extent driver.Dim2D, old *SwapChain) (*SwapChain, error) {
	return newSwapChain(dev, extent, old)
}

func newSwapChain(dev driver.Device, extent driver.Dim2D, old *SwapChain) (*SwapChain, error) {
	s := &SwapChain{dev: dev, windowExtent: extent}
	if err := s.init(old); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// init runs the fixed creation sequence.
// Any step failing leaves s partially constructed; Destroy
// must still be safe to call.
func (s *SwapChain) init(old *SwapChain) error {
	if err := s.createSwapchain(old); err != nil {
		return err
	}
	if err := s.createViews(); err != nil {
		return err
	}
	if err := s.createPass(); err != nil {
		return err
	}
	if err := s.createDepth(); err != nil {
		return err
	}
	if err := s.createFramebufs(); err != nil {
		return err
	}
	return s.createSync()
}

func (s *SwapChain) createSwapchain(old *SwapChain) error {
	sf, err := s.dev.Surface()
	if err != nil {
		return err
	}
	format := chooseSurfaceFormat(sf.Formats)
	mode := choosePresentMode(sf.Modes)
	extent := chooseExtent(sf.Capabilities, s.windowExtent)

	n := sf.Capabilities.MinImageCount + 1
	if x := sf.Capabilities.MaxImageCount; x > 0 && n > x {
		n = x
	}

	info := driver.SwapchainInfo{
		MinImageCount: n,
		Format:        format,
		Extent:        extent,
		Mode:          mode,
	}
	if old != nil {
		info.Old = old.sc
	}
	sc, err := s.dev.NewSwapchain(&info)
	if err != nil {
		return err
	}
	s.sc = sc
	s.format = format
	s.extent = extent
	return nil
}

func (s *SwapChain) createViews() error {
	imgs := s.sc.Images()
	s.views = make([]driver.ImageView, 0, len(imgs))
	for i := range imgs {
		v, err := imgs[i].NewView()
		if err != nil {
			return err
		}
		s.views = append(s.views, v)
	}
	return nil
}

func (s *SwapChain) createPass() error {
	depth, err := findDepthFormat(s.dev)
	if err != nil {
		return err
	}
	s.depthFormat = depth
	att, sub, dep := passDescription(s.format.Format, depth)
	pass, err := s.dev.NewRenderPass(att, sub, dep)
	if err != nil {
		return err
	}
	s.pass = pass
	return nil
}

// createDepth creates one depth image and view per swapchain
// image. Depth resources are size-dependent and recreated
// wholesale whenever the swapchain is.
func (s *SwapChain) createDepth() error {
	n := len(s.views)
	s.depthImages = make([]driver.Image, 0, n)
	s.depthViews = make([]driver.ImageView, 0, n)
	for i := 0; i < n; i++ {
		img, err := s.dev.NewDepthImage(s.depthFormat, s.extent)
		if err != nil {
			return err
		}
		s.depthImages = append(s.depthImages, img)
		v, err := img.NewView()
		if err != nil {
			return err
		}
		s.depthViews = append(s.depthViews, v)
	}
	return nil
}

func (s *SwapChain) createFramebufs() error {
	s.framebufs = make([]driver.Framebuf, 0, len(s.views))
	for i := range s.views {
		iv := []driver.ImageView{s.views[i], s.depthViews[i]}
		fb, err := s.pass.NewFB(iv, s.extent.Width, s.extent.Height)
		if err != nil {
			return err
		}
		s.framebufs = append(s.framebufs, fb)
	}
	return nil
}

// createSync creates the frame-slot synchronization objects.
// In-flight fences are created signaled so the first wait on
// a slot never blocks.
func (s *SwapChain) createSync() error {
	for i := 0; i < MaxFramesInFlight; i++ {
		sem, err := s.dev.NewSemaphore()
		if err != nil {
			return err
		}
		s.imageAvailable[i] = sem
		if sem, err = s.dev.NewSemaphore(); err != nil {
			return err
		}
		s.renderFinished[i] = sem
		fence, err := s.dev.NewFence(true)
		if err != nil {
			return err
		}
		s.inFlight[i] = fence
	}
	s.imageInFlight = make([]driver.Fence, len(s.views))
	return nil
}

// ImageCount returns the number of presentable images.
// It is device-determined and at least the surface's
// reported minimum plus one, capped by its maximum.
func (s *SwapChain) ImageCount() int { return len(s.views) }

// Format returns the color format of the swapchain images.
func (s *SwapChain) Format() driver.PixelFmt { return s.format.Format }

// DepthFormat returns the format of the depth attachments.
func (s *SwapChain) DepthFormat() driver.PixelFmt { return s.depthFormat }

// Extent returns the swapchain extent.
func (s *SwapChain) Extent() driver.Dim2D { return s.extent }

// Width returns the swapchain extent's width.
func (s *SwapChain) Width() int { return s.extent.Width }

// Height returns the swapchain extent's height.
func (s *SwapChain) Height() int { return s.extent.Height }

// AspectRatio returns the width:height ratio of the
// swapchain extent.
func (s *SwapChain) AspectRatio() float32 {
	return float32(s.extent.Width) / float32(s.extent.Height)
}

// Framebuffer returns the framebuffer bound to the image
// at the given index.
func (s *SwapChain) Framebuffer(index int) driver.Framebuf { return s.framebufs[index] }

// RenderPass returns the render pass that the swapchain's
// framebuffers are bound to.
func (s *SwapChain) RenderPass() driver.RenderPass { return s.pass }

// CompatibleWith reports whether other renders in the same
// color and depth formats as s. When it holds, recreation is
// purely size-driven and pipelines built against s remain
// valid for other.
func (s *SwapChain) CompatibleWith(other *SwapChain) bool {
	return other.format.Format == s.format.Format &&
		other.depthFormat == s.depthFormat
}

// Destroy waits for outstanding GPU work on the frame slots
// to retire and then releases every resource.
// It is safe to call on a partially constructed SwapChain:
// never-created handles are skipped.
func (s *SwapChain) Destroy() {
	if s == nil || s.dev == nil {
		return
	}
	for i := range s.inFlight {
		if s.inFlight[i] != nil {
			s.inFlight[i].Wait()
		}
	}
	for _, v := range s.views {
		if v != nil {
			v.Destroy()
		}
	}
	if s.sc != nil {
		s.sc.Destroy()
	}
	for _, v := range s.depthViews {
		if v != nil {
			v.Destroy()
		}
	}
	for _, img := range s.depthImages {
		if img != nil {
			img.Destroy()
		}
	}
	for _, fb := range s.framebufs {
		if fb != nil {
			fb.Destroy()
		}
	}
	if s.pass != nil {
		s.pass.Destroy()
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		if s.renderFinished[i] != nil {
			s.renderFinished[i].Destroy()
		}
		if s.imageAvailable[i] != nil {
			s.imageAvailable[i].Destroy()
		}
		if s.inFlight[i] != nil {
			s.inFlight[i].Destroy()
		}
	}
	*s = SwapChain{}
}
