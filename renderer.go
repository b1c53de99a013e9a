// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import (
	"errors"

	"github.com/gviegas/present/driver"
)

// ErrFormatChanged means that a recreated swapchain renders
// in different color or depth formats than its predecessor.
// Pipelines built against the old swapchain must be rebuilt
// before rendering resumes.
var ErrFormatChanged = errors.New("present: swapchain format changed")

// Window is the piece of the windowing layer that the
// renderer consumes. Window and surface creation themselves
// are external to this package.
type Window interface {
	// Extent returns the framebuffer extent. It is zero
	// in either dimension while the window is minimized.
	Extent() driver.Dim2D

	// Resized reports whether the window was resized since
	// the last AckResize.
	Resized() bool

	// AckResize clears the resized flag.
	AckResize()

	// Wait blocks until window state may have changed.
	// It is called while the extent is zero.
	Wait()
}

// Renderer drives the per-frame acquire/submit/present cycle
// and owns the live SwapChain, recreating it in response to
// window resizes and out-of-date results.
type Renderer struct {
	dev driver.Device
	win Window
	sc  *SwapChain
	cb  [MaxFramesInFlight]driver.CmdBuffer

	imageIndex int
	frame      int
	inProgress bool
}

// NewRenderer creates a Renderer with a fresh SwapChain and
// one command buffer per frame slot.
func NewRenderer(dev driver.Device, win Window) (*Renderer, error) {
	r := &Renderer{dev: dev, win: win}
	if err := r.recreateSwapChain(); err != nil {
		return nil, err
	}
	for i := range r.cb {
		cb, err := dev.NewCmdBuffer()
		if err != nil {
			r.Destroy()
			return nil, err
		}
		r.cb[i] = cb
	}
	return r, nil
}

// recreateSwapChain replaces the live SwapChain with one
// matching the window's current extent, chaining the old
// instance as creation hint.
// It returns ErrFormatChanged when the replacement renders
// in different formats; the new swapchain is live either way.
func (r *Renderer) recreateSwapChain() error {
	extent := r.win.Extent()
	for extent.Width == 0 || extent.Height == 0 {
		r.win.Wait()
		extent = r.win.Extent()
	}
	if err := r.dev.WaitIdle(); err != nil {
		return err
	}
	if r.sc == nil {
		sc, err := New(r.dev, extent)
		if err != nil {
			return err
		}
		r.sc = sc
		return nil
	}
	old := r.sc
	sc, err := NewFrom(r.dev, extent, old)
	if err != nil {
		return err
	}
	compat := old.CompatibleWith(sc)
	old.Destroy()
	r.sc = sc
	logger().Debug("present: swapchain recreated",
		"width", extent.Width, "height", extent.Height)
	if !compat {
		return ErrFormatChanged
	}
	return nil
}

// BeginFrame acquires the next swapchain image and begins
// recording into the frame slot's command buffer.
// A nil command buffer with a nil error means the swapchain
// was out of date and has been recreated; the caller should
// retry on the next iteration.
func (r *Renderer) BeginFrame() (driver.CmdBuffer, error) {
	if r.inProgress {
		panic("present: BeginFrame with a frame in progress")
	}
	idx, err := r.sc.AcquireNextImage()
	switch {
	case errors.Is(err, driver.ErrOutOfDate):
		if err := r.recreateSwapChain(); err != nil {
			return nil, err
		}
		return nil, nil
	case err != nil && !errors.Is(err, driver.ErrSuboptimal):
		return nil, err
	}
	r.imageIndex = idx
	r.inProgress = true
	cb := r.cb[r.frame]
	if err := cb.Begin(); err != nil {
		r.inProgress = false
		return nil, err
	}
	return cb, nil
}

// EndFrame ends recording and submits the frame.
// Suboptimal and out-of-date presentation results, as well
// as a pending window resize, trigger recreation here rather
// than surfacing as errors.
func (r *Renderer) EndFrame() error {
	if !r.inProgress {
		panic("present: EndFrame without a frame in progress")
	}
	cb := r.cb[r.frame]
	if err := cb.End(); err != nil {
		return err
	}
	err := r.sc.SubmitCommandBuffers([]driver.CmdBuffer{cb}, r.imageIndex)
	r.inProgress = false
	r.frame = (r.frame + 1) % MaxFramesInFlight
	switch {
	case errors.Is(err, driver.ErrOutOfDate), errors.Is(err, driver.ErrSuboptimal), r.win.Resized():
		r.win.AckResize()
		return r.recreateSwapChain()
	case err != nil:
		return err
	}
	return nil
}

// BeginPass begins the swapchain render pass on cb, clearing
// the color attachment to near-black and depth to 1, and sets
// a full-extent viewport and scissor.
func (r *Renderer) BeginPass(cb driver.CmdBuffer) {
	if !r.inProgress {
		panic("present: BeginPass without a frame in progress")
	}
	if cb != r.cb[r.frame] {
		panic("present: command buffer from a different frame")
	}
	clear := []driver.ClearValue{
		{Color: [4]float32{0.01, 0.01, 0.01, 1}},
		{Depth: 1, Stencil: 0},
	}
	ext := r.sc.Extent()
	cb.BeginPass(r.sc.RenderPass(), r.sc.Framebuffer(r.imageIndex), ext, clear)
	cb.SetViewport(driver.Viewport{
		Width:  float32(ext.Width),
		Height: float32(ext.Height),
		Zfar:   1,
	})
	cb.SetScissor(driver.Off2D{}, ext)
}

// EndPass ends the swapchain render pass on cb.
func (r *Renderer) EndPass(cb driver.CmdBuffer) {
	if !r.inProgress {
		panic("present: EndPass without a frame in progress")
	}
	if cb != r.cb[r.frame] {
		panic("present: command buffer from a different frame")
	}
	cb.EndPass()
}

// RenderPass returns the render pass of the live swapchain.
func (r *Renderer) RenderPass() driver.RenderPass { return r.sc.RenderPass() }

// AspectRatio returns the live swapchain's aspect ratio.
func (r *Renderer) AspectRatio() float32 { return r.sc.AspectRatio() }

// InProgress reports whether a frame is being recorded.
func (r *Renderer) InProgress() bool { return r.inProgress }

// FrameIndex returns the current frame slot index.
// It must only be called with a frame in progress.
func (r *Renderer) FrameIndex() int {
	if !r.inProgress {
		panic("present: FrameIndex without a frame in progress")
	}
	return r.frame
}

// Destroy releases the renderer's command buffers and its
// SwapChain.
func (r *Renderer) Destroy() {
	for i := range r.cb {
		if r.cb[i] != nil {
			r.cb[i].Destroy()
		}
	}
	if r.sc != nil {
		r.sc.Destroy()
	}
	*r = Renderer{}
}
