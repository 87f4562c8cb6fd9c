// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"context"

	"github.com/gogpu/pageview/surface"
)

// painter is the part of a render that depends on the surface variant.
type painter interface {
	kind() surface.Kind

	// continuation returns the callback the renderer calls between chunks
	// of work. It runs on the rendering goroutine.
	continuation(v *PageView, t *PaintTask) func(ctx context.Context) error
}

func newPainter(k surface.Kind) painter {
	if k == surface.KindVector {
		return vectorPainter{}
	}
	return canvasPainter{}
}

// canvasPainter asks the view on the run loop whether to go on. The view
// consults the rendering queue and may park the render until Resume.
type canvasPainter struct{}

func (canvasPainter) kind() surface.Kind { return surface.KindCanvas }

func (canvasPainter) continuation(v *PageView, t *PaintTask) func(context.Context) error {
	return func(ctx context.Context) error {
		if t.Cancelled() {
			return ErrRenderingCancelled
		}
		reply := make(chan error, 1)
		v.loop.Post(func() { v.onRenderContinue(t, reply) })
		select {
		case err := <-reply:
			return err
		case <-ctx.Done():
			return ErrRenderingCancelled
		}
	}
}

// vectorPainter proceeds immediately unless the task was cancelled.
type vectorPainter struct{}

func (vectorPainter) kind() surface.Kind { return surface.KindVector }

func (vectorPainter) continuation(_ *PageView, t *PaintTask) func(context.Context) error {
	return func(context.Context) error {
		if t.Cancelled() {
			return ErrRenderingCancelled
		}
		return nil
	}
}
