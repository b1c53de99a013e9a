// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/present/driver"
)

// cmdBuffer implements driver.CmdBuffer.
// It is a primary command buffer allocated from the
// Device's command pool.
type cmdBuffer struct {
	d  *Device
	cb vk.CommandBuffer
}

// NewCmdBuffer implements driver.Device.
func (d *Device) NewCmdBuffer() (driver.CmdBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if err := vkErr(vk.AllocateCommandBuffers(d.dev, &allocInfo, cbs), "allocate command buffer"); err != nil {
		return nil, err
	}
	return &cmdBuffer{d: d, cb: cbs[0]}, nil
}

func (c *cmdBuffer) Begin() error {
	if err := vkErr(vk.ResetCommandBuffer(c.cb, 0), "reset command buffer"); err != nil {
		return err
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return vkErr(vk.BeginCommandBuffer(c.cb, &beginInfo), "begin command buffer")
}

func (c *cmdBuffer) End() error {
	return vkErr(vk.EndCommandBuffer(c.cb), "end command buffer")
}

func (c *cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, size driver.Dim2D, clear []driver.ClearValue) {
	p := pass.(*renderPass)
	clearValues := make([]vk.ClearValue, len(clear))
	for i := range clear {
		if i < len(p.att) && p.att[i].Format.IsDepth() {
			clearValues[i].SetDepthStencil(clear[i].Depth, clear[i].Stencil)
		} else {
			clearValues[i].SetColor(clear[i].Color[:])
		}
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  p.pass,
		Framebuffer: fb.(*framebuf).fb,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{
				Width:  uint32(size.Width),
				Height: uint32(size.Height),
			},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.cb, &beginInfo, vk.SubpassContentsInline)
}

func (c *cmdBuffer) EndPass() {
	vk.CmdEndRenderPass(c.cb)
}

func (c *cmdBuffer) SetViewport(vp driver.Viewport) {
	vk.CmdSetViewport(c.cb, 0, 1, []vk.Viewport{{
		X:        vp.X,
		Y:        vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.Znear,
		MaxDepth: vp.Zfar,
	}})
}

func (c *cmdBuffer) SetScissor(off driver.Off2D, size driver.Dim2D) {
	vk.CmdSetScissor(c.cb, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: int32(off.X), Y: int32(off.Y)},
		Extent: vk.Extent2D{
			Width:  uint32(size.Width),
			Height: uint32(size.Height),
		},
	}})
}

func (c *cmdBuffer) Destroy() {
	vk.FreeCommandBuffers(c.d.dev, c.d.pool, 1, []vk.CommandBuffer{c.cb})
	*c = cmdBuffer{}
}
