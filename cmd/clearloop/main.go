// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Clearloop opens a window and drives the presentation
// pipeline in a loop that clears the screen every frame.
// It exercises swapchain recreation on resize and
// minimization.
package main

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/gviegas/present"
	"github.com/gviegas/present/driver"
	vkdrv "github.com/gviegas/present/driver/vk"
)

const (
	width  = 960
	height = 540
)

var deviceExtensions = []string{"VK_KHR_swapchain\x00"}

func init() {
	runtime.LockOSThread()
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	present.SetLogger(slog.Default())
	if err := run(); err != nil {
		slog.Error("clearloop failed", "err", err)
		os.Exit(1)
	}
}

// window adapts a GLFW window to present.Window.
type window struct {
	win     *glfw.Window
	resized bool
}

func newWindow() (*window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, "clearloop", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	w := &window{win: win}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		w.resized = true
	})
	return w, nil
}

func (w *window) Extent() driver.Dim2D {
	x, y := w.win.GetFramebufferSize()
	return driver.Dim2D{Width: x, Height: y}
}

func (w *window) Resized() bool { return w.resized }

func (w *window) AckResize() { w.resized = false }

func (w *window) Wait() { glfw.WaitEvents() }

func run() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "init GLFW")
	}
	defer glfw.Terminate()

	win, err := newWindow()
	if err != nil {
		return err
	}
	defer win.win.Destroy()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "init Vulkan")
	}

	instance, err := createInstance(win.win)
	if err != nil {
		return err
	}
	defer vk.DestroyInstance(instance, nil)

	surfacePtr, err := win.win.CreateWindowSurface(instance, nil)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}
	surface := vk.SurfaceFromPointer(surfacePtr)
	defer vk.DestroySurface(instance, surface, nil)

	phys, gfxFam, prsFam, err := pickPhysicalDevice(instance, surface)
	if err != nil {
		return err
	}
	logical, err := createDevice(phys, gfxFam, prsFam)
	if err != nil {
		return err
	}
	defer vk.DestroyDevice(logical, nil)

	dev, err := vkdrv.New(&vkdrv.Config{
		PhysicalDevice: phys,
		Device:         logical,
		Surface:        surface,
		GraphicsFamily: gfxFam,
		PresentFamily:  prsFam,
	})
	if err != nil {
		return err
	}
	defer dev.Destroy()

	rend, err := present.NewRenderer(dev, win)
	if err != nil {
		return err
	}
	defer rend.Destroy()

	for !win.win.ShouldClose() {
		glfw.PollEvents()
		if err := drawFrame(rend); err != nil {
			return err
		}
	}
	return dev.WaitIdle()
}

func drawFrame(rend *present.Renderer) error {
	cb, err := rend.BeginFrame()
	switch {
	case errors.Is(err, present.ErrFormatChanged):
		// No pipelines to rebuild here; keep going.
		return nil
	case err != nil:
		return err
	case cb == nil:
		// Swapchain was recreated; retry next iteration.
		return nil
	}
	rend.BeginPass(cb)
	rend.EndPass(cb)
	err = rend.EndFrame()
	if errors.Is(err, present.ErrFormatChanged) {
		err = nil
	}
	return err
}

func createInstance(win *glfw.Window) (vk.Instance, error) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   "clearloop\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "present\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	extensions := win.GetRequiredInstanceExtensions()
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = extensions

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return nil, errors.Wrap(vk.Error(res), "create instance")
	}
	vk.InitInstance(instance)
	return instance, nil
}

func pickPhysicalDevice(instance vk.Instance, surface vk.Surface) (vk.PhysicalDevice, int, int, error) {
	var count uint32
	vk.EnumeratePhysicalDevices(instance, &count, nil)
	if count == 0 {
		return nil, 0, 0, errors.New("no Vulkan-capable device")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(instance, &count, devices)

	for _, phys := range devices {
		gfx, prs, ok := findQueueFamilies(phys, surface)
		if ok {
			return phys, gfx, prs, nil
		}
	}
	return nil, 0, 0, errors.New("no device with graphics and presentation support")
}

func findQueueFamilies(phys vk.PhysicalDevice, surface vk.Surface) (graphics, presentation int, ok bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(phys, &count, families)

	graphics, presentation = -1, -1
	for i := range families {
		families[i].Deref()
		flags := families[i].QueueFlags
		families[i].Free()

		if graphics < 0 && flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphics = i
		}
		var support vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(phys, uint32(i), surface, &support)
		if presentation < 0 && support == vk.True {
			presentation = i
		}
		if graphics >= 0 && presentation >= 0 {
			return graphics, presentation, true
		}
	}
	return 0, 0, false
}

func createDevice(phys vk.PhysicalDevice, gfxFam, prsFam int) (vk.Device, error) {
	unique := map[int]bool{gfxFam: true, prsFam: true}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for fam := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(fam),
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
	}
	var dev vk.Device
	if res := vk.CreateDevice(phys, &createInfo, nil, &dev); res != vk.Success {
		return nil, errors.Wrap(vk.Error(res), "create logical device")
	}
	return dev, nil
}
