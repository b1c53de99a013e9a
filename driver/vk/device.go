// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package vk implements the driver interfaces on the
// Vulkan API.
// The caller owns instance, surface and logical device
// creation; a Device wraps those handles and exposes the
// subset of the API that the presentation pipeline drives.
package vk

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/gviegas/present/driver"
)

// Config carries the Vulkan handles that a Device wraps.
// The logical device must have been created with the
// swapchain extension enabled and with one queue from each
// of the named families.
type Config struct {
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Surface        vk.Surface
	GraphicsFamily int
	PresentFamily  int
}

// Device implements driver.Device.
type Device struct {
	phys vk.PhysicalDevice
	dev  vk.Device
	surf vk.Surface

	gfxFam int
	prsFam int
	gfxQue vk.Queue
	prsQue vk.Queue

	pool vk.CommandPool
}

// New creates a new Device from existing Vulkan handles.
func New(config *Config) (*Device, error) {
	d := &Device{
		phys:   config.PhysicalDevice,
		dev:    config.Device,
		surf:   config.Surface,
		gfxFam: config.GraphicsFamily,
		prsFam: config.PresentFamily,
	}
	vk.GetDeviceQueue(d.dev, uint32(d.gfxFam), 0, &d.gfxQue)
	vk.GetDeviceQueue(d.dev, uint32(d.prsFam), 0, &d.prsQue)

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: uint32(d.gfxFam),
	}
	if err := vkErr(vk.CreateCommandPool(d.dev, &poolInfo, nil, &d.pool), "create command pool"); err != nil {
		return nil, err
	}
	return d, nil
}

// Surface implements driver.Device.
func (d *Device) Surface() (driver.SurfaceInfo, error) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(d.phys, d.surf, &caps)
	if err := vkErr(res, "surface capabilities"); err != nil {
		return driver.SurfaceInfo{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	defer caps.Free()

	var info driver.SurfaceInfo
	info.Capabilities = driver.Capabilities{
		MinImageCount: int(caps.MinImageCount),
		MaxImageCount: int(caps.MaxImageCount),
		CurrentExtent: driver.Dim2D{
			Width:  int(caps.CurrentExtent.Width),
			Height: int(caps.CurrentExtent.Height),
		},
		MinExtent: driver.Dim2D{
			Width:  int(caps.MinImageExtent.Width),
			Height: int(caps.MinImageExtent.Height),
		},
		MaxExtent: driver.Dim2D{
			Width:  int(caps.MaxImageExtent.Width),
			Height: int(caps.MaxImageExtent.Height),
		},
	}
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		info.Capabilities.CurrentExtent = driver.Dim2D{Width: -1, Height: -1}
	}

	var nf uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.phys, d.surf, &nf, nil)
	if nf > 0 {
		formats := make([]vk.SurfaceFormat, nf)
		vk.GetPhysicalDeviceSurfaceFormats(d.phys, d.surf, &nf, formats)
		for i := range formats {
			formats[i].Deref()
			f := convFormatBack(formats[i].Format)
			cs := formats[i].ColorSpace
			formats[i].Free()
			if f == driver.FInvalid || cs != vk.ColorspaceSrgbNonlinear {
				continue
			}
			info.Formats = append(info.Formats, driver.SurfaceFormat{
				Format:     f,
				ColorSpace: driver.CSRGBNonlinear,
			})
		}
	}
	if len(info.Formats) == 0 {
		return driver.SurfaceInfo{}, errors.Wrap(driver.ErrWindow, "no usable surface format")
	}

	var nm uint32
	vk.GetPhysicalDeviceSurfacePresentModes(d.phys, d.surf, &nm, nil)
	if nm > 0 {
		modes := make([]vk.PresentMode, nm)
		vk.GetPhysicalDeviceSurfacePresentModes(d.phys, d.surf, &nm, modes)
		for _, m := range modes {
			if x, ok := convModeBack(m); ok {
				info.Modes = append(info.Modes, x)
			}
		}
	}
	if len(info.Modes) == 0 {
		return driver.SurfaceInfo{}, errors.Wrap(driver.ErrWindow, "no usable present mode")
	}
	return info, nil
}

// QueueFamilies implements driver.Device.
func (d *Device) QueueFamilies() (graphics, present int) { return d.gfxFam, d.prsFam }

// FindSupportedFormat implements driver.Device.
// Support means optimal-tiling depth/stencil attachment use.
func (d *Device) FindSupportedFormat(prefs []driver.PixelFmt) (driver.PixelFmt, error) {
	want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, p := range prefs {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.phys, convFormat(p), &props)
		props.Deref()
		props.Free()
		if props.OptimalTilingFeatures&want == want {
			return p, nil
		}
	}
	return driver.FInvalid, errors.New("vk: no supported format among preferences")
}

// NewSemaphore implements driver.Device.
func (d *Device) NewSemaphore() (driver.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := vkErr(vk.CreateSemaphore(d.dev, &info, nil, &sem), "create semaphore"); err != nil {
		return nil, err
	}
	return &semaphore{d: d, sem: sem}, nil
}

// NewFence implements driver.Device.
func (d *Device) NewFence(signaled bool) (driver.Fence, error) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	if err := vkErr(vk.CreateFence(d.dev, &info, nil, &f), "create fence"); err != nil {
		return nil, err
	}
	return &fence{d: d, fence: f}, nil
}

// Submit implements driver.Device.
func (d *Device) Submit(cb []driver.CmdBuffer, wait driver.Semaphore, stage driver.Sync, signal driver.Semaphore, f driver.Fence) error {
	cbs := make([]vk.CommandBuffer, len(cb))
	for i := range cb {
		cbs[i] = cb[i].(*cmdBuffer).cb
	}
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cbs)),
		PCommandBuffers:    cbs,
	}
	if wait != nil {
		info.WaitSemaphoreCount = 1
		info.PWaitSemaphores = []vk.Semaphore{wait.(*semaphore).sem}
		info.PWaitDstStageMask = []vk.PipelineStageFlags{convSync(stage)}
	}
	if signal != nil {
		info.SignalSemaphoreCount = 1
		info.PSignalSemaphores = []vk.Semaphore{signal.(*semaphore).sem}
	}
	vkFence := vk.Fence(vk.NullHandle)
	if f != nil {
		vkFence = f.(*fence).fence
	}
	return vkErr(vk.QueueSubmit(d.gfxQue, 1, []vk.SubmitInfo{info}, vkFence), "queue submit")
}

// Present implements driver.Device.
func (d *Device) Present(sc driver.Swapchain, index int, wait driver.Semaphore) error {
	info := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{sc.(*swapchain).sc},
		PImageIndices:  []uint32{uint32(index)},
	}
	if wait != nil {
		info.WaitSemaphoreCount = 1
		info.PWaitSemaphores = []vk.Semaphore{wait.(*semaphore).sem}
	}
	return vkErr(vk.QueuePresent(d.prsQue, &info), "queue present")
}

// WaitIdle implements driver.Device.
func (d *Device) WaitIdle() error {
	return vkErr(vk.DeviceWaitIdle(d.dev), "device wait idle")
}

// Destroy releases the Device's command pool.
// The handles given at creation remain owned by the caller.
func (d *Device) Destroy() {
	if d.pool != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(d.dev, d.pool, nil)
	}
	*d = Device{}
}

type semaphore struct {
	d   *Device
	sem vk.Semaphore
}

func (s *semaphore) Destroy() {
	vk.DestroySemaphore(s.d.dev, s.sem, nil)
	*s = semaphore{}
}

// fence implements driver.Fence.
type fence struct {
	d     *Device
	fence vk.Fence
}

func (f *fence) Wait() error {
	res := vk.WaitForFences(f.d.dev, 1, []vk.Fence{f.fence}, vk.True, vk.MaxUint64)
	return vkErr(res, "wait for fence")
}

func (f *fence) Reset() error {
	return vkErr(vk.ResetFences(f.d.dev, 1, []vk.Fence{f.fence}), "reset fence")
}

func (f *fence) Destroy() {
	vk.DestroyFence(f.d.dev, f.fence, nil)
	*f = fence{}
}
