// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import "github.com/gviegas/present/driver"

// depthPrefs is the depth format preference order, best first.
var depthPrefs = []driver.PixelFmt{
	driver.D32f,
	driver.D32fS8ui,
	driver.D24unS8ui,
}

// findDepthFormat returns the best supported depth format.
func findDepthFormat(dev driver.Device) (driver.PixelFmt, error) {
	return dev.FindSupportedFormat(depthPrefs)
}

// passDescription describes the render pass that swapchain
// framebuffers are bound to: one color attachment cleared on
// load and stored for presentation, one depth attachment
// cleared on load and discarded on store, a single subpass
// referencing both, and a dependency from prior work's color
// output and early fragment tests to the same scopes of the
// subpass. The dependency is what makes reuse of the
// attachments across successive frames safe without a
// separate barrier.
func passDescription(color, depth driver.PixelFmt) ([]driver.Attachment, driver.Subpass, driver.Dependency) {
	att := []driver.Attachment{
		{
			Format:  color,
			Samples: 1,
			Load:    [2]driver.LoadOp{driver.LClear, driver.LDontCare},
			Store:   [2]driver.StoreOp{driver.SStore, driver.SDontCare},
			Initial: driver.LUndefined,
			Final:   driver.LPresent,
		},
		{
			Format:  depth,
			Samples: 1,
			Load:    [2]driver.LoadOp{driver.LClear, driver.LDontCare},
			Store:   [2]driver.StoreOp{driver.SDontCare, driver.SDontCare},
			Initial: driver.LUndefined,
			Final:   driver.LDSTarget,
		},
	}
	sub := driver.Subpass{
		Color: []int{0},
		DS:    1,
	}
	dep := driver.Dependency{
		SyncBefore:   driver.SColorOutput | driver.SDSOutput,
		SyncAfter:    driver.SColorOutput | driver.SDSOutput,
		AccessBefore: driver.ANone,
		AccessAfter:  driver.AColorWrite | driver.ADSWrite,
	}
	return att, sub, dep
}
