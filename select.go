// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import "github.com/gviegas/present/driver"

// chooseSurfaceFormat selects the format to render into.
// It prefers 8-bit BGRA with the nonlinear sRGB color space,
// falling back to the first supported format.
// formats must not be empty (platform contract).
func chooseSurfaceFormat(formats []driver.SurfaceFormat) driver.SurfaceFormat {
	for _, f := range formats {
		if f.Format == driver.BGRA8sRGB && f.ColorSpace == driver.CSRGBNonlinear {
			return f
		}
	}
	logger().Debug("present: preferred surface format unavailable",
		"format", formats[0].Format)
	return formats[0]
}

// choosePresentMode selects the presentation mode.
// It prefers mailbox and falls back to FIFO, which the
// platform guarantees to support.
func choosePresentMode(modes []driver.PresentMode) driver.PresentMode {
	mode := driver.FIFO
	for _, m := range modes {
		if m == driver.Mailbox {
			mode = m
			break
		}
	}
	logger().Info("present: presentation mode", "mode", mode.String())
	return mode
}

// chooseExtent selects the swapchain extent.
// A definite CurrentExtent is mandatory and used verbatim;
// otherwise the window extent is clamped to the surface's
// bounds per dimension.
func chooseExtent(capab driver.Capabilities, window driver.Dim2D) driver.Dim2D {
	if capab.CurrentExtent.Width != -1 {
		return capab.CurrentExtent
	}
	return driver.Dim2D{
		Width:  min(max(window.Width, capab.MinExtent.Width), capab.MaxExtent.Width),
		Height: min(max(window.Height, capab.MinExtent.Height), capab.MaxExtent.Height),
	}
}
