// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import (
	"errors"

	"github.com/gviegas/present/driver"
)

var errTest = errors.New("injected failure")

// testDevice implements driver.Device over in-memory state.
// Creation calls are counted so tests can inject a failure
// at any step and check that destruction balances creation.
type testDevice struct {
	info   driver.SurfaceInfo
	depth  []driver.PixelFmt
	gfxFam int
	prsFam int

	// imageCount overrides the number of images that new
	// swapchains get; 0 means SwapchainInfo.MinImageCount.
	imageCount int

	// failAt makes the nth creation call fail (1-based);
	// 0 disables injection.
	failAt  int
	creates int
	alive   int

	lastSC      *testSwapchain
	submits     []testSubmit
	presents    []testPresent
	presentErrs []error
	idles       int
}

type testSubmit struct {
	cb     []driver.CmdBuffer
	wait   driver.Semaphore
	stage  driver.Sync
	signal driver.Semaphore
	fence  driver.Fence
}

type testPresent struct {
	sc    driver.Swapchain
	index int
	wait  driver.Semaphore
}

func newTestDevice() *testDevice {
	return &testDevice{
		info: driver.SurfaceInfo{
			Capabilities: driver.Capabilities{
				MinImageCount: 2,
				MaxImageCount: 8,
				CurrentExtent: driver.Dim2D{Width: -1, Height: -1},
				MinExtent:     driver.Dim2D{Width: 1, Height: 1},
				MaxExtent:     driver.Dim2D{Width: 4096, Height: 4096},
			},
			Formats: []driver.SurfaceFormat{
				{Format: driver.BGRA8sRGB, ColorSpace: driver.CSRGBNonlinear},
			},
			Modes: []driver.PresentMode{driver.FIFO, driver.Mailbox},
		},
		depth: []driver.PixelFmt{driver.D32f},
	}
}

func (d *testDevice) create() error {
	d.creates++
	if d.failAt != 0 && d.creates == d.failAt {
		return errTest
	}
	d.alive++
	return nil
}

func (d *testDevice) Surface() (driver.SurfaceInfo, error) { return d.info, nil }

func (d *testDevice) QueueFamilies() (int, int) { return d.gfxFam, d.prsFam }

func (d *testDevice) FindSupportedFormat(prefs []driver.PixelFmt) (driver.PixelFmt, error) {
	for _, p := range prefs {
		for _, f := range d.depth {
			if p == f {
				return p, nil
			}
		}
	}
	return driver.FInvalid, errTest
}

func (d *testDevice) NewSwapchain(info *driver.SwapchainInfo) (driver.Swapchain, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	n := info.MinImageCount
	if d.imageCount > 0 {
		n = d.imageCount
	}
	s := &testSwapchain{d: d, info: *info}
	for i := 0; i < n; i++ {
		s.images = append(s.images, &testImage{d: d, swapchain: true})
	}
	d.lastSC = s
	return s, nil
}

func (d *testDevice) NewRenderPass(att []driver.Attachment, sub driver.Subpass, dep driver.Dependency) (driver.RenderPass, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	return &testPass{d: d, att: att, sub: sub, dep: dep}, nil
}

func (d *testDevice) NewDepthImage(pf driver.PixelFmt, size driver.Dim2D) (driver.Image, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	return &testImage{d: d, pf: pf, size: size}, nil
}

func (d *testDevice) NewSemaphore() (driver.Semaphore, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	return &testSemaphore{d: d}, nil
}

func (d *testDevice) NewFence(signaled bool) (driver.Fence, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	return &testFence{d: d, signaled: signaled}, nil
}

func (d *testDevice) NewCmdBuffer() (driver.CmdBuffer, error) {
	if err := d.create(); err != nil {
		return nil, err
	}
	return &testCmdBuffer{d: d}, nil
}

func (d *testDevice) Submit(cb []driver.CmdBuffer, wait driver.Semaphore, stage driver.Sync, signal driver.Semaphore, fence driver.Fence) error {
	d.submits = append(d.submits, testSubmit{cb, wait, stage, signal, fence})
	return nil
}

func (d *testDevice) Present(sc driver.Swapchain, index int, wait driver.Semaphore) error {
	d.presents = append(d.presents, testPresent{sc, index, wait})
	if len(d.presentErrs) > 0 {
		err := d.presentErrs[0]
		d.presentErrs = d.presentErrs[1:]
		return err
	}
	return nil
}

func (d *testDevice) WaitIdle() error {
	d.idles++
	return nil
}

// testSwapchain implements driver.Swapchain.
// Next hands out image indices round-robin unless nextErrs
// scripts a different outcome.
type testSwapchain struct {
	d         *testDevice
	info      driver.SwapchainInfo
	images    []driver.Image
	next      int
	nextErrs  []error
	destroyed bool
}

func (s *testSwapchain) Destroy() {
	s.d.alive--
	s.destroyed = true
}

func (s *testSwapchain) Images() []driver.Image { return s.images }

func (s *testSwapchain) Next(sem driver.Semaphore) (int, error) {
	var err error
	if len(s.nextErrs) > 0 {
		err = s.nextErrs[0]
		s.nextErrs = s.nextErrs[1:]
	}
	if err != nil && !errors.Is(err, driver.ErrSuboptimal) {
		return -1, err
	}
	i := s.next
	s.next = (s.next + 1) % len(s.images)
	return i, err
}

// testImage implements driver.Image.
// Swapchain images are owned by the swapchain and are not
// individually counted.
type testImage struct {
	d         *testDevice
	swapchain bool
	pf        driver.PixelFmt
	size      driver.Dim2D
}

func (i *testImage) Destroy() {
	if !i.swapchain {
		i.d.alive--
	}
}

func (i *testImage) NewView() (driver.ImageView, error) {
	if err := i.d.create(); err != nil {
		return nil, err
	}
	return &testView{d: i.d, img: i}, nil
}

type testView struct {
	d   *testDevice
	img *testImage
}

func (v *testView) Destroy() { v.d.alive-- }

type testPass struct {
	d   *testDevice
	att []driver.Attachment
	sub driver.Subpass
	dep driver.Dependency
}

func (p *testPass) Destroy() { p.d.alive-- }

func (p *testPass) NewFB(iv []driver.ImageView, width, height int) (driver.Framebuf, error) {
	if err := p.d.create(); err != nil {
		return nil, err
	}
	return &testFB{d: p.d, iv: iv, size: driver.Dim2D{Width: width, Height: height}}, nil
}

type testFB struct {
	d    *testDevice
	iv   []driver.ImageView
	size driver.Dim2D
}

func (f *testFB) Destroy() { f.d.alive-- }

type testSemaphore struct {
	d *testDevice
}

func (s *testSemaphore) Destroy() { s.d.alive-- }

// testFence implements driver.Fence as a bounded stand-in
// for the device's unbounded fence wait: waiting on an
// unsignaled fence records the blocking wait and then
// reports the work as retired.
type testFence struct {
	d        *testDevice
	signaled bool
	waited   int
}

func (f *testFence) Wait() error {
	if !f.signaled {
		f.waited++
		f.signaled = true
	}
	return nil
}

func (f *testFence) Reset() error {
	f.signaled = false
	return nil
}

func (f *testFence) Destroy() { f.d.alive-- }

type testCmdBuffer struct {
	d         *testDevice
	begun     int
	ended     int
	passes    int
	inPass    bool
	viewports []driver.Viewport
	scissors  int
}

func (c *testCmdBuffer) Destroy() { c.d.alive-- }

func (c *testCmdBuffer) Begin() error {
	c.begun++
	return nil
}

func (c *testCmdBuffer) End() error {
	c.ended++
	return nil
}

func (c *testCmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, size driver.Dim2D, clear []driver.ClearValue) {
	c.passes++
	c.inPass = true
}

func (c *testCmdBuffer) EndPass() { c.inPass = false }

func (c *testCmdBuffer) SetViewport(vp driver.Viewport) {
	c.viewports = append(c.viewports, vp)
}

func (c *testCmdBuffer) SetScissor(off driver.Off2D, size driver.Dim2D) { c.scissors++ }

// testWindow implements Window.
type testWindow struct {
	extent  driver.Dim2D
	resized bool
	waits   int
	onWait  func(*testWindow)
}

func (w *testWindow) Extent() driver.Dim2D { return w.extent }

func (w *testWindow) Resized() bool { return w.resized }

func (w *testWindow) AckResize() { w.resized = false }

func (w *testWindow) Wait() {
	w.waits++
	if w.onWait != nil {
		w.onWait(w)
	}
}
