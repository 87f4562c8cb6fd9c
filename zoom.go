// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/viewport"
)

// ErrNoZoomLayer is returned by ZoomPreview when no preview is kept.
var ErrNoZoomLayer = errors.New("pageview: no zoom layer")

// UpdateParams changes how the page is displayed. Zero fields keep the
// current value.
type UpdateParams struct {
	Scale           float64
	Rotation        *int
	OptionalContent document.OptionalContentFunc
}

// Update applies a new scale, rotation or optional content visibility.
//
// When only the viewport changed, the view is finished and either CSS-only
// zoom is enabled or the canvas pixel limit would restrict the new render,
// the painted surface is kept and DisplayTransform maps it onto the new
// viewport. Otherwise the view is reset, keeping the painted surface as a
// zoom preview and the annotation and XFA layers for the next Draw.
func (v *PageView) Update(p UpdateParams) error {
	if v.state == StateDestroyed {
		return ErrDestroyed
	}
	if p.Scale < 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return fmt.Errorf("pageview: scale %v: %w", p.Scale, viewport.ErrInvalidScale)
	}
	scale, rotation := v.scale, v.rotation
	if p.Scale > 0 {
		scale = p.Scale
	}
	if p.Rotation != nil {
		rotation = *p.Rotation
	}
	contentChanged := p.OptionalContent != nil

	if v.viewport == nil || v.page == nil {
		v.scale, v.rotation = scale, rotation
		if contentChanged {
			v.optionalContent = p.OptionalContent
		}
		return nil
	}

	vs, vr := scale*viewport.CSSUnits, rotation+v.pageRotate
	vp, err := v.viewport.Clone(viewport.CloneParams{Scale: &vs, Rotation: &vr})
	if err != nil {
		return fmt.Errorf("pageview: page %d: %w", v.id, err)
	}
	if vp.Equal(v.viewport) && !contentChanged {
		return nil
	}
	v.scale, v.rotation, v.viewport = scale, rotation, vp
	if contentChanged {
		v.optionalContent = p.OptionalContent
	}

	if !contentChanged && v.canZoomWithoutRepaint(vp) {
		v.display = vp.Transform().Multiply(v.paintedViewport.Transform().Invert())
		if err := v.layers.Update(vp); err != nil {
			v.log.Warn("pageview: update layers", "err", err)
		}
		v.dispatch(eventbus.PageRenderedEvent{
			PageNumber:   v.id,
			CSSTransform: true,
			Timestamp:    time.Now(),
		})
		return nil
	}

	v.Reset(ResetParams{
		KeepZoomLayer:       true,
		KeepAnnotationLayer: true,
		KeepXFALayer:        true,
	})
	return nil
}

func (v *PageView) canZoomWithoutRepaint(vp *viewport.Viewport) bool {
	if v.state != StateFinished || v.target == nil || v.renderErr != nil || v.paintedViewport == nil {
		return false
	}
	if v.opts.useOnlyCSSZoom {
		return true
	}
	return v.restricted && v.exceedsCanvasPixels(vp)
}

// ZoomPreview returns the surface kept by the last reset scaled to the
// current viewport, to display while the new render is in progress.
func (v *PageView) ZoomPreview() (image.Image, error) {
	if v.zoomLayer == nil || v.viewport == nil {
		return nil, ErrNoZoomLayer
	}
	src, err := v.zoomLayer.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("pageview: zoom preview: %w", err)
	}
	w := max(int(math.Round(v.viewport.Width())), 1)
	h := max(int(math.Round(v.viewport.Height())), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
