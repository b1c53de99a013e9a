// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package present

import "github.com/gviegas/present/driver"

// AcquireNextImage blocks until the current frame slot's
// previous work retires and then requests the index of the
// next presentable image, using the slot's image-available
// semaphore.
// A valid index is returned alongside driver.ErrSuboptimal;
// driver.ErrOutOfDate means no image was acquired and the
// swapchain must be recreated.
func (s *SwapChain) AcquireNextImage() (int, error) {
	if err := s.inFlight[s.frame].Wait(); err != nil {
		return -1, err
	}
	return s.sc.Next(s.imageAvailable[s.frame])
}

// SubmitCommandBuffers submits cb to the graphics queue and
// enqueues presentation of the image at imageIndex.
//
// If an earlier, not-yet-retired frame is still rendering
// into that image (possible when the image count exceeds
// MaxFramesInFlight), its fence is waited on first. An image
// index that was never acquired has no associated fence and
// the wait is skipped; this mirrors the platform contract
// and is intentional.
//
// Submission waits on the slot's image-available semaphore at
// the color output stage, signals its render-finished
// semaphore, and signals the slot's fence on completion.
// Presentation is gated on the render-finished semaphore.
// The frame slot advances only when presentation succeeds;
// any other result propagates to the caller verbatim.
func (s *SwapChain) SubmitCommandBuffers(cb []driver.CmdBuffer, imageIndex int) error {
	if imageIndex < 0 || imageIndex >= len(s.imageInFlight) {
		panic("present: image index out of range")
	}
	if f := s.imageInFlight[imageIndex]; f != nil {
		if err := f.Wait(); err != nil {
			return err
		}
	}
	s.imageInFlight[imageIndex] = s.inFlight[s.frame]

	if err := s.inFlight[s.frame].Reset(); err != nil {
		return err
	}
	err := s.dev.Submit(cb, s.imageAvailable[s.frame], driver.SColorOutput,
		s.renderFinished[s.frame], s.inFlight[s.frame])
	if err != nil {
		return err
	}
	if err := s.dev.Present(s.sc, imageIndex, s.renderFinished[s.frame]); err != nil {
		return err
	}
	s.frame = (s.frame + 1) % MaxFramesInFlight
	return nil
}
