// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import (
	"testing"

	"github.com/gviegas/present/driver"
)

func TestNew(t *testing.T) {
	d := newTestDevice()
	s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer s.Destroy()

	// Default capabilities report a minimum of 2 and a
	// maximum of 8, so the device is asked for 3 images.
	if n := d.lastSC.info.MinImageCount; n != 3 {
		t.Errorf("New: requested image count\nhave %d\nwant 3", n)
	}
	if n := s.ImageCount(); n != 3 {
		t.Errorf("New: s.ImageCount()\nhave %d\nwant 3", n)
	}
	if f := s.Format(); f != driver.BGRA8sRGB {
		t.Errorf("New: s.Format()\nhave %v\nwant %v", f, driver.BGRA8sRGB)
	}
	if f := s.DepthFormat(); f != driver.D32f {
		t.Errorf("New: s.DepthFormat()\nhave %v\nwant %v", f, driver.D32f)
	}
	if e := s.Extent(); e != (driver.Dim2D{Width: 800, Height: 600}) {
		t.Errorf("New: s.Extent()\nhave %v\nwant {800 600}", e)
	}
	if w, h := s.Width(), s.Height(); w != 800 || h != 600 {
		t.Errorf("New: s.Width(), s.Height()\nhave %d, %d\nwant 800, 600", w, h)
	}
	if r := s.AspectRatio(); r != 800.0/600.0 {
		t.Errorf("New: s.AspectRatio()\nhave %v\nwant %v", r, 800.0/600.0)
	}
	if p := s.RenderPass(); p == nil {
		t.Error("New: s.RenderPass()\nhave nil\nwant non-nil")
	}
	if d.lastSC.info.Old != nil {
		t.Errorf("New: recorded Old hint\nhave %v\nwant nil", d.lastSC.info.Old)
	}
}

func TestNewImageCountCap(t *testing.T) {
	cases := []struct {
		min, max int
		want     int
	}{
		{2, 8, 3},
		{3, 3, 3},
		{2, 2, 2},
		// 0 means no maximum.
		{4, 0, 5},
	}
	for _, c := range cases {
		d := newTestDevice()
		d.info.Capabilities.MinImageCount = c.min
		d.info.Capabilities.MaxImageCount = c.max
		s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
		if err != nil {
			t.Fatalf("New (min %d, max %d): unexpected error %v", c.min, c.max, err)
		}
		if n := d.lastSC.info.MinImageCount; n != c.want {
			t.Errorf("New (min %d, max %d): requested image count\nhave %d\nwant %d", c.min, c.max, n, c.want)
		}
		s.Destroy()
	}
}

func TestNewResourceCounts(t *testing.T) {
	for n := 1; n <= 8; n++ {
		d := newTestDevice()
		d.imageCount = n
		s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
		if err != nil {
			t.Fatalf("New (%d images): unexpected error %v", n, err)
		}
		if x := s.ImageCount(); x != n {
			t.Errorf("New (%d images): s.ImageCount()\nhave %d\nwant %d", n, x, n)
		}
		for _, seq := range [...]struct {
			name string
			len  int
		}{
			{"views", len(s.views)},
			{"depthImages", len(s.depthImages)},
			{"depthViews", len(s.depthViews)},
			{"framebufs", len(s.framebufs)},
			{"imageInFlight", len(s.imageInFlight)},
		} {
			if seq.len != n {
				t.Errorf("New (%d images): len(s.%s)\nhave %d\nwant %d", n, seq.name, seq.len, n)
			}
		}
		s.Destroy()
		if d.alive != 0 {
			t.Errorf("Destroy (%d images): live resources\nhave %d\nwant 0", n, d.alive)
		}
	}
}

// TestNewPartialFailure injects a failure at every creation
// step in turn and checks that nothing leaks.
func TestNewPartialFailure(t *testing.T) {
	d := newTestDevice()
	s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	s.Destroy()
	steps := d.creates

	for i := 1; i <= steps; i++ {
		d := newTestDevice()
		d.failAt = i
		s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
		if err == nil {
			s.Destroy()
			t.Fatalf("New (failAt %d)\nhave nil\nwant error", i)
		}
		if s != nil {
			t.Errorf("New (failAt %d): SwapChain\nhave %v\nwant nil", i, s)
		}
		if d.alive != 0 {
			t.Errorf("New (failAt %d): live resources\nhave %d\nwant 0", i, d.alive)
		}
	}
}

func TestNewFrom(t *testing.T) {
	d := newTestDevice()
	a, err := New(d, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	aSC := d.lastSC

	b, err := NewFrom(d, driver.Dim2D{Width: 400, Height: 300}, a)
	if err != nil {
		t.Fatalf("NewFrom: unexpected error %v", err)
	}
	bSC := d.lastSC
	if bSC == aSC {
		t.Fatal("NewFrom: device did not create a new swapchain")
	}
	if bSC.info.Old != driver.Swapchain(aSC) {
		t.Errorf("NewFrom: recorded Old hint\nhave %v\nwant %v", bSC.info.Old, aSC)
	}

	// The predecessor is borrowed during creation only.
	// Destroying it must not affect the successor.
	a.Destroy()
	if !aSC.destroyed {
		t.Error("Destroy: predecessor swapchain not destroyed")
	}
	if bSC.destroyed {
		t.Error("Destroy: successor swapchain destroyed alongside predecessor")
	}
	if e := b.Extent(); e != (driver.Dim2D{Width: 400, Height: 300}) {
		t.Errorf("NewFrom: b.Extent()\nhave %v\nwant {400 300}", e)
	}

	b.Destroy()
	if d.alive != 0 {
		t.Errorf("Destroy: live resources\nhave %d\nwant 0", d.alive)
	}
}

func TestCompatibleWith(t *testing.T) {
	d1 := newTestDevice()
	s1, err := New(d1, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer s1.Destroy()

	// Same formats, different extent.
	s2, err := New(d1, driver.Dim2D{Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer s2.Destroy()
	if !s1.CompatibleWith(s2) || !s2.CompatibleWith(s1) {
		t.Error("CompatibleWith: same formats\nhave false\nwant true")
	}

	// Different color format.
	d2 := newTestDevice()
	d2.info.Formats = []driver.SurfaceFormat{
		{Format: driver.RGBA8un, ColorSpace: driver.CSRGBNonlinear},
	}
	s3, err := New(d2, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer s3.Destroy()
	if s1.CompatibleWith(s3) {
		t.Error("CompatibleWith: different color format\nhave true\nwant false")
	}

	// Different depth format.
	d3 := newTestDevice()
	d3.depth = []driver.PixelFmt{driver.D24unS8ui}
	s4, err := New(d3, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer s4.Destroy()
	if s1.CompatibleWith(s4) {
		t.Error("CompatibleWith: different depth format\nhave true\nwant false")
	}
}

func TestDestroy(t *testing.T) {
	d := newTestDevice()
	s, err := New(d, driver.Dim2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}

	// Pending work on a frame slot must retire before
	// resources are released.
	fence := s.inFlight[0].(*testFence)
	fence.Reset()

	s.Destroy()
	if fence.waited != 1 {
		t.Errorf("Destroy: pending fence waits\nhave %d\nwant 1", fence.waited)
	}
	if d.alive != 0 {
		t.Errorf("Destroy: live resources\nhave %d\nwant 0", d.alive)
	}

	// Repeated calls and calls on the zero value are no-ops.
	s.Destroy()
	var nilSC *SwapChain
	nilSC.Destroy()
	if d.alive != 0 {
		t.Errorf("Destroy: live resources after repeat\nhave %d\nwant 0", d.alive)
	}
}
