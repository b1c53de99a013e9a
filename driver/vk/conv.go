// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/gviegas/present/driver"
)

// vkErr converts a Vulkan result into a driver error,
// annotated with the operation that produced it.
// ErrSuboptimal and ErrOutOfDate are returned bare so
// callers can match them directly.
func vkErr(res vk.Result, op string) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return driver.ErrSuboptimal
	case vk.ErrorOutOfDate:
		return driver.ErrOutOfDate
	case vk.ErrorOutOfHostMemory:
		return errors.Wrap(driver.ErrNoHostMemory, op)
	case vk.ErrorOutOfDeviceMemory:
		return errors.Wrap(driver.ErrNoDeviceMemory, op)
	case vk.ErrorDeviceLost:
		return errors.Wrap(driver.ErrFatal, op)
	case vk.ErrorSurfaceLost, vk.ErrorNativeWindowInUse:
		return errors.Wrap(driver.ErrWindow, op)
	}
	return errors.Wrap(vk.Error(res), op)
}

func convFormat(f driver.PixelFmt) vk.Format {
	switch f {
	case driver.RGBA8un:
		return vk.FormatR8g8b8a8Unorm
	case driver.RGBA8sRGB:
		return vk.FormatR8g8b8a8Srgb
	case driver.BGRA8un:
		return vk.FormatB8g8r8a8Unorm
	case driver.BGRA8sRGB:
		return vk.FormatB8g8r8a8Srgb
	case driver.RGBA16f:
		return vk.FormatR16g16b16a16Sfloat
	case driver.D16un:
		return vk.FormatD16Unorm
	case driver.D32f:
		return vk.FormatD32Sfloat
	case driver.D24unS8ui:
		return vk.FormatD24UnormS8Uint
	case driver.D32fS8ui:
		return vk.FormatD32SfloatS8Uint
	}
	return vk.FormatUndefined
}

func convFormatBack(f vk.Format) driver.PixelFmt {
	switch f {
	case vk.FormatR8g8b8a8Unorm:
		return driver.RGBA8un
	case vk.FormatR8g8b8a8Srgb:
		return driver.RGBA8sRGB
	case vk.FormatB8g8r8a8Unorm:
		return driver.BGRA8un
	case vk.FormatB8g8r8a8Srgb:
		return driver.BGRA8sRGB
	case vk.FormatR16g16b16a16Sfloat:
		return driver.RGBA16f
	case vk.FormatD16Unorm:
		return driver.D16un
	case vk.FormatD32Sfloat:
		return driver.D32f
	case vk.FormatD24UnormS8Uint:
		return driver.D24unS8ui
	case vk.FormatD32SfloatS8Uint:
		return driver.D32fS8ui
	}
	return driver.FInvalid
}

// convAspect returns the image aspect implied by the format.
func convAspect(f driver.PixelFmt) vk.ImageAspectFlags {
	if !f.IsDepth() {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	a := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if f.HasStencil() {
		a |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return a
}

func convMode(m driver.PresentMode) vk.PresentMode {
	switch m {
	case driver.FIFORelaxed:
		return vk.PresentModeFifoRelaxed
	case driver.Mailbox:
		return vk.PresentModeMailbox
	case driver.Immediate:
		return vk.PresentModeImmediate
	}
	return vk.PresentModeFifo
}

func convModeBack(m vk.PresentMode) (driver.PresentMode, bool) {
	switch m {
	case vk.PresentModeFifo:
		return driver.FIFO, true
	case vk.PresentModeFifoRelaxed:
		return driver.FIFORelaxed, true
	case vk.PresentModeMailbox:
		return driver.Mailbox, true
	case vk.PresentModeImmediate:
		return driver.Immediate, true
	}
	return 0, false
}

func convLayout(l driver.Layout) vk.ImageLayout {
	switch l {
	case driver.LColorTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case driver.LDSTarget:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case driver.LPresent:
		return vk.ImageLayoutPresentSrc
	}
	return vk.ImageLayoutUndefined
}

func convLoadOp(op driver.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case driver.LClear:
		return vk.AttachmentLoadOpClear
	case driver.LLoad:
		return vk.AttachmentLoadOpLoad
	}
	return vk.AttachmentLoadOpDontCare
}

func convStoreOp(op driver.StoreOp) vk.AttachmentStoreOp {
	if op == driver.SStore {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

func convSamples(n int) vk.SampleCountFlagBits {
	switch n {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	}
	return vk.SampleCount1Bit
}

func convSync(s driver.Sync) vk.PipelineStageFlags {
	if s&driver.SAll != 0 {
		return vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	var f vk.PipelineStageFlags
	if s&driver.SColorOutput != 0 {
		f |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	if s&driver.SDSOutput != 0 {
		f |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
	}
	if f == 0 {
		f = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	return f
}

func convAccess(a driver.Access) vk.AccessFlags {
	var f vk.AccessFlags
	if a&driver.AColorRead != 0 {
		f |= vk.AccessFlags(vk.AccessColorAttachmentReadBit)
	}
	if a&driver.AColorWrite != 0 {
		f |= vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	}
	if a&driver.ADSRead != 0 {
		f |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
	}
	if a&driver.ADSWrite != 0 {
		f |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}
	return f
}
