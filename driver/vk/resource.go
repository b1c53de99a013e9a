// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/gviegas/present/driver"
)

// swapchain implements driver.Swapchain.
type swapchain struct {
	d      *Device
	sc     vk.Swapchain
	images []driver.Image
}

// NewSwapchain implements driver.Device.
func (d *Device) NewSwapchain(info *driver.SwapchainInfo) (driver.Swapchain, error) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(d.phys, d.surf, &caps)
	if err := vkErr(res, "surface capabilities"); err != nil {
		return nil, err
	}
	caps.Deref()
	transform := caps.CurrentTransform
	caps.Free()

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surf,
		MinImageCount:    uint32(info.MinImageCount),
		ImageFormat:      convFormat(info.Format.Format),
		ImageColorSpace:  vk.ColorspaceSrgbNonlinear,
		ImageExtent: vk.Extent2D{
			Width:  uint32(info.Extent.Width),
			Height: uint32(info.Extent.Height),
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     transform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      convMode(info.Mode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if d.gfxFam != d.prsFam {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(d.gfxFam), uint32(d.prsFam)}
	}
	if info.Old != nil {
		createInfo.OldSwapchain = info.Old.(*swapchain).sc
	}

	s := &swapchain{d: d}
	if err := vkErr(vk.CreateSwapchain(d.dev, &createInfo, nil, &s.sc), "create swapchain"); err != nil {
		return nil, err
	}

	var n uint32
	vk.GetSwapchainImages(d.dev, s.sc, &n, nil)
	imgs := make([]vk.Image, n)
	if err := vkErr(vk.GetSwapchainImages(d.dev, s.sc, &n, imgs), "get swapchain images"); err != nil {
		vk.DestroySwapchain(d.dev, s.sc, nil)
		return nil, err
	}
	s.images = make([]driver.Image, n)
	for i := range imgs {
		s.images[i] = &image{d: d, img: imgs[i], format: info.Format.Format, owned: false}
	}
	return s, nil
}

func (s *swapchain) Images() []driver.Image { return s.images }

func (s *swapchain) Next(sem driver.Semaphore) (int, error) {
	var index uint32
	res := vk.AcquireNextImage(s.d.dev, s.sc, vk.MaxUint64,
		sem.(*semaphore).sem, vk.Fence(vk.NullHandle), &index)
	switch res {
	case vk.Success:
		return int(index), nil
	case vk.Suboptimal:
		return int(index), driver.ErrSuboptimal
	}
	return -1, vkErr(res, "acquire next image")
}

func (s *swapchain) Destroy() {
	vk.DestroySwapchain(s.d.dev, s.sc, nil)
	*s = swapchain{}
}

// image implements driver.Image.
// Swapchain images are not owned and their Destroy is a
// no-op; device-created images own their backing memory.
type image struct {
	d      *Device
	img    vk.Image
	mem    vk.DeviceMemory
	format driver.PixelFmt
	owned  bool
}

// NewDepthImage implements driver.Device.
func (d *Device) NewDepthImage(pf driver.PixelFmt, size driver.Dim2D) (driver.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    convFormat(pf),
		Extent: vk.Extent3D{
			Width:  uint32(size.Width),
			Height: uint32(size.Height),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	img := &image{d: d, format: pf, owned: true}
	if err := vkErr(vk.CreateImage(d.dev, &createInfo, nil, &img.img), "create image"); err != nil {
		return nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, img.img, &reqs)
	reqs.Deref()
	reqs.Free()
	typeIndex, err := d.findMemoryType(reqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(d.dev, img.img, nil)
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: typeIndex,
	}
	if err := vkErr(vk.AllocateMemory(d.dev, &allocInfo, nil, &img.mem), "allocate image memory"); err != nil {
		vk.DestroyImage(d.dev, img.img, nil)
		return nil, err
	}
	if err := vkErr(vk.BindImageMemory(d.dev, img.img, img.mem, 0), "bind image memory"); err != nil {
		vk.DestroyImage(d.dev, img.img, nil)
		vk.FreeMemory(d.dev, img.mem, nil)
		return nil, err
	}
	return img, nil
}

func (d *Device) findMemoryType(typeBits uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.phys, &memProps)
	memProps.Deref()
	memProps.Free()

	for i, t := range memProps.MemoryTypes {
		t.Deref()
		t.Free()
		if typeBits&(1<<uint32(i)) != 0 && t.PropertyFlags&props == props {
			return uint32(i), nil
		}
	}
	return 0, errors.New("vk: no suitable memory type")
}

func (i *image) NewView() (driver.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.img,
		ViewType: vk.ImageViewType2d,
		Format:   convFormat(i.format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: convAspect(i.format),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	v := &imageView{d: i.d}
	if err := vkErr(vk.CreateImageView(i.d.dev, &viewInfo, nil, &v.view), "create image view"); err != nil {
		return nil, err
	}
	return v, nil
}

func (i *image) Destroy() {
	if i.owned {
		vk.DestroyImage(i.d.dev, i.img, nil)
		vk.FreeMemory(i.d.dev, i.mem, nil)
	}
	*i = image{}
}

// imageView implements driver.ImageView.
type imageView struct {
	d    *Device
	view vk.ImageView
}

func (v *imageView) Destroy() {
	vk.DestroyImageView(v.d.dev, v.view, nil)
	*v = imageView{}
}

// renderPass implements driver.RenderPass.
// Attachment formats are retained so command buffers can
// tell color clears from depth/stencil clears.
type renderPass struct {
	d    *Device
	pass vk.RenderPass
	att  []driver.Attachment
}

// NewRenderPass implements driver.Device.
func (d *Device) NewRenderPass(att []driver.Attachment, sub driver.Subpass, dep driver.Dependency) (driver.RenderPass, error) {
	descs := make([]vk.AttachmentDescription, len(att))
	for i := range att {
		descs[i] = vk.AttachmentDescription{
			Format:         convFormat(att[i].Format),
			Samples:        convSamples(att[i].Samples),
			LoadOp:         convLoadOp(att[i].Load[0]),
			StoreOp:        convStoreOp(att[i].Store[0]),
			StencilLoadOp:  convLoadOp(att[i].Load[1]),
			StencilStoreOp: convStoreOp(att[i].Store[1]),
			InitialLayout:  convLayout(att[i].Initial),
			FinalLayout:    convLayout(att[i].Final),
		}
	}

	colorRefs := make([]vk.AttachmentReference, len(sub.Color))
	for i, c := range sub.Color {
		colorRefs[i] = vk.AttachmentReference{
			Attachment: uint32(c),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}
	}
	subDesc := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if sub.DS >= 0 {
		subDesc.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(sub.DS),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	subDep := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  convSync(dep.SyncBefore),
		SrcAccessMask: convAccess(dep.AccessBefore),
		DstStageMask:  convSync(dep.SyncAfter),
		DstAccessMask: convAccess(dep.AccessAfter),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subDesc},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subDep},
	}
	p := &renderPass{d: d, att: append([]driver.Attachment(nil), att...)}
	if err := vkErr(vk.CreateRenderPass(d.dev, &createInfo, nil, &p.pass), "create render pass"); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *renderPass) NewFB(iv []driver.ImageView, width, height int) (driver.Framebuf, error) {
	views := make([]vk.ImageView, len(iv))
	for i := range iv {
		views[i] = iv[i].(*imageView).view
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      p.pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           uint32(width),
		Height:          uint32(height),
		Layers:          1,
	}
	fb := &framebuf{d: p.d}
	if err := vkErr(vk.CreateFramebuffer(p.d.dev, &createInfo, nil, &fb.fb), "create framebuffer"); err != nil {
		return nil, err
	}
	return fb, nil
}

func (p *renderPass) Destroy() {
	vk.DestroyRenderPass(p.d.dev, p.pass, nil)
	*p = renderPass{}
}

// framebuf implements driver.Framebuf.
type framebuf struct {
	d  *Device
	fb vk.Framebuffer
}

func (f *framebuf) Destroy() {
	vk.DestroyFramebuffer(f.d.dev, f.fb, nil)
	*f = framebuf{}
}
