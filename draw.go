// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/layers"
	"github.com/gogpu/pageview/surface"
	"github.com/gogpu/pageview/viewport"
)

// CancelParams lists the layers that survive a cancelled render.
type CancelParams struct {
	KeepAnnotationLayer bool
	KeepXFALayer        bool
}

// ResetParams lists what survives a reset. KeepZoomLayer keeps the last
// painted surface as a preview until the next render finishes.
type ResetParams struct {
	KeepZoomLayer       bool
	KeepAnnotationLayer bool
	KeepXFALayer        bool
}

// Draw starts rendering the page. While a render is in progress, or after
// it finished, Draw returns the existing task instead of starting another.
//
// The returned task resolves on the run loop; drive the loop to observe it.
func (v *PageView) Draw() (*PaintTask, error) {
	if v.state == StateDestroyed {
		return nil, ErrDestroyed
	}
	if v.page == nil {
		return nil, ErrNoPage
	}
	if v.state != StateInitial {
		if v.task == nil {
			return nil, fmt.Errorf("%w: draw while %s", ErrInvalidState, v.state)
		}
		return v.task, nil
	}

	vp := v.viewport
	scale := v.outputScaleFor(vp)
	opts, transform := v.targetGeometry(vp, scale)
	target, err := v.entry.Factory(opts)
	if err != nil {
		return nil, fmt.Errorf("pageview: page %d: create %s target: %w", v.id, v.entry.Name, err)
	}

	v.gen++
	t := newPaintTask(v.gen, target)
	v.task = t
	v.state = StateRunning
	v.renderErr = nil
	v.restricted = scale.restricted
	v.hideError()
	v.showLoading()
	v.log.Debug("pageview: draw", "renderer", v.entry.Name, "width", opts.Width, "height", opts.Height)

	v.dispatch(eventbus.PageRenderEvent{PageNumber: v.id})
	if v.queue != nil {
		v.queue.RenderStarted(v)
	}

	page := v.page
	optional := v.optionalContent
	params := document.RenderParams{
		Canvas:         target.Canvas(),
		Viewport:       vp,
		Transform:      transform,
		Intent:         document.IntentDisplay,
		AnnotationMode: v.opts.annotationMode,
		Continue:       v.painter.continuation(v, t),
	}
	var renderErr error
	v.loop.Go(func() {
		renderErr = paint(t.ctx, page, params, optional)
	}, func() {
		v.finishPaint(t, vp, renderErr)
	})
	return t, nil
}

// paint runs on its own goroutine. It must not touch the view.
func paint(ctx context.Context, page document.Page, params document.RenderParams, optional document.OptionalContentFunc) error {
	if optional != nil {
		cfg, err := optional(ctx)
		if err != nil {
			return fmt.Errorf("optional content: %w", err)
		}
		params.OptionalContent = cfg
	}
	return page.Render(ctx, params)
}

// finishPaint settles t on the run loop.
func (v *PageView) finishPaint(t *PaintTask, vp *viewport.Viewport, err error) {
	if t.Resolved() || t != v.task || t.ID() != v.gen || t.Cancelled() {
		closeTarget(t.Target())
		return
	}
	v.resume = nil
	v.state = StateFinished
	v.hideLoading()
	v.releaseZoomLayer()
	if v.target != nil && v.target != t.Target() {
		closeTarget(v.target)
	}
	v.target = t.Target()
	v.paintedViewport = vp
	v.display = gg.Identity()

	if err != nil {
		v.renderErr = &RenderError{PageNumber: v.id, Err: err}
		v.log.Error("pageview: render failed", "err", err)
		v.showError()
	} else if berr := v.layers.Build(vp, v.painter.kind()); berr != nil {
		v.log.Warn("pageview: build layers", "err", berr)
	}

	v.dispatch(eventbus.PageRenderedEvent{
		PageNumber: v.id,
		Timestamp:  time.Now(),
		Error:      v.renderErr,
	})
	if v.queue != nil {
		v.queue.RenderFinished(v)
	}
	t.resolve(v.renderErr)
}

// onRenderContinue answers a canvas continuation on the run loop. A render
// that is not the highest priority is parked until Resume.
func (v *PageView) onRenderContinue(t *PaintTask, reply chan<- error) {
	if t != v.task || t.Resolved() || t.Cancelled() {
		reply <- ErrRenderingCancelled
		return
	}
	if v.queue == nil || v.queue.IsHighestPriority(v) {
		reply <- nil
		return
	}
	v.state = StatePaused
	v.log.Debug("pageview: render paused")
	v.resume = func() {
		v.state = StateRunning
		reply <- nil
	}
}

// Resume continues a paused render. It reports whether there was one.
func (v *PageView) Resume() bool {
	if v.resume == nil {
		return false
	}
	r := v.resume
	v.resume = nil
	v.log.Debug("pageview: render resumed")
	r()
	return true
}

// CancelRendering aborts the render in progress and returns the view to
// StateInitial. The task resolves with ErrRenderingCancelled. Without a
// render in progress it does nothing.
func (v *PageView) CancelRendering(p CancelParams) {
	t := v.task
	if t == nil || t.Resolved() {
		return
	}
	t.Cancel()
	v.gen++
	v.task = nil
	v.resume = nil
	v.state = StateInitial
	v.layers.Cancel(layers.Keep{Annotation: p.KeepAnnotationLayer, XFA: p.KeepXFALayer})
	v.log.Debug("pageview: render cancelled", "task", t.ID())

	v.dispatch(eventbus.PageRenderCancelledEvent{PageNumber: v.id})
	if v.queue != nil {
		v.queue.RenderCancelled(v)
	}
	t.resolve(ErrRenderingCancelled)
}

// Reset cancels any render, drops the painted surface and the layers that
// are not kept, and returns the view to StateInitial. Resetting a view that
// holds nothing has no effect.
func (v *PageView) Reset(p ResetParams) {
	if v.state == StateDestroyed {
		return
	}
	v.CancelRendering(CancelParams{
		KeepAnnotationLayer: p.KeepAnnotationLayer,
		KeepXFALayer:        p.KeepXFALayer,
	})
	v.layers.Cancel(layers.Keep{Annotation: p.KeepAnnotationLayer, XFA: p.KeepXFALayer})
	v.task = nil
	v.state = StateInitial
	v.renderErr = nil
	v.hideError()

	if v.target != nil {
		if p.KeepZoomLayer && v.zoomLayer == nil && v.paintedViewport != nil {
			v.zoomLayer, v.zoomViewport = v.target, v.paintedViewport
		} else {
			closeTarget(v.target)
		}
		v.target = nil
	}
	if !p.KeepZoomLayer {
		v.releaseZoomLayer()
	}
	v.paintedViewport = nil
	v.display = gg.Identity()
	v.showLoading()
}

func (v *PageView) releaseZoomLayer() {
	if v.zoomLayer != nil {
		closeTarget(v.zoomLayer)
		v.zoomLayer, v.zoomViewport = nil, nil
	}
}

func closeTarget(t surface.Target) {
	if t != nil {
		_ = t.Close()
	}
}

// outputScaleFor returns the device pixel factor a canvas render of vp
// uses.
func (v *PageView) outputScaleFor(vp *viewport.Viewport) outputScale {
	s := v.opts.outputScale
	if s <= 0 {
		s = 1
	}
	out := outputScale{sx: s, sy: s}
	if v.painter.kind() != surface.KindCanvas {
		return outputScale{sx: 1, sy: 1}
	}
	if v.opts.useOnlyCSSZoom {
		ratio := viewport.CSSUnits / vp.Scale()
		out.sx *= ratio
		out.sy *= ratio
	}
	if v.opts.maxCanvasPixels > 0 {
		maxScale := math.Sqrt(float64(v.opts.maxCanvasPixels) / (vp.Width() * vp.Height()))
		if out.sx > maxScale || out.sy > maxScale {
			out.sx, out.sy = maxScale, maxScale
			out.restricted = true
		}
	}
	return out
}

// exceedsCanvasPixels reports whether painting vp at the configured output
// scale would exceed the canvas pixel limit.
func (v *PageView) exceedsCanvasPixels(vp *viewport.Viewport) bool {
	if v.opts.maxCanvasPixels <= 0 || v.painter.kind() != surface.KindCanvas {
		return false
	}
	s := max(v.opts.outputScale, 1)
	return vp.Width()*vp.Height()*s*s > float64(v.opts.maxCanvasPixels)
}

// targetGeometry returns the surface size for vp and the transform from
// CSS pixels to surface pixels.
func (v *PageView) targetGeometry(vp *viewport.Viewport, s outputScale) (surface.Options, gg.Matrix) {
	fx, _ := approximateFraction(s.sx)
	fy, _ := approximateFraction(s.sy)
	opts := surface.Options{
		Width:  roundToDivide(vp.Width()*s.sx, fx),
		Height: roundToDivide(vp.Height()*s.sy, fy),
	}
	return opts, gg.Scale(s.sx, s.sy)
}
