// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewport describes how a page is projected onto a drawing surface.
//
// A Viewport is an immutable snapshot of scale, rotation and the derived
// surface dimensions. Every scale or rotation change produces a new Viewport;
// existing values are never modified, so a *Viewport can be used as an
// identity token by code that must detect a change of projection.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"
)

// CSSUnits converts PDF points (1/72 inch) to CSS pixels (1/96 inch).
const CSSUnits = 96.0 / 72.0

var (
	// ErrInvalidRotation is returned for rotations that are not a multiple of 90 degrees.
	ErrInvalidRotation = errors.New("viewport: rotation must be a multiple of 90 degrees")

	// ErrInvalidScale is returned for non-positive or non-finite scales.
	ErrInvalidScale = errors.New("viewport: scale must be a positive finite number")

	// ErrEmptyViewBox is returned when the view box has no area.
	ErrEmptyViewBox = errors.New("viewport: view box is empty")
)

// Params configures a new Viewport.
type Params struct {
	// ViewBox is the page's intrinsic box in page units (x0, y0, x1, y1).
	ViewBox r2.Rect

	// Scale is the zoom factor applied to the view box.
	Scale float64

	// Rotation in degrees, clockwise. Normalised into [0, 360).
	Rotation int

	// OffsetX and OffsetY shift the result on the surface.
	OffsetX, OffsetY float64

	// DontFlip keeps the page y axis pointing up.
	DontFlip bool
}

// Viewport is the immutable projection of a page onto a surface.
type Viewport struct {
	viewBox  r2.Rect
	scale    float64
	rotation int
	offsetX  float64
	offsetY  float64
	dontFlip bool

	width     float64
	height    float64
	transform gg.Matrix
}

// New builds a viewport from p.
func New(p Params) (*Viewport, error) {
	if p.Scale <= 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, p.Scale)
	}
	if p.ViewBox.IsEmpty() || p.ViewBox.Size().X == 0 || p.ViewBox.Size().Y == 0 {
		return nil, ErrEmptyViewBox
	}
	rotation := p.Rotation % 360
	if rotation < 0 {
		rotation += 360
	}
	if rotation%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, p.Rotation)
	}

	box := p.ViewBox
	centerX := (box.X.Hi + box.X.Lo) / 2
	centerY := (box.Y.Hi + box.Y.Lo) / 2

	var rotateA, rotateB, rotateC, rotateD float64
	switch rotation {
	case 180:
		rotateA, rotateB, rotateC, rotateD = -1, 0, 0, 1
	case 90:
		rotateA, rotateB, rotateC, rotateD = 0, 1, 1, 0
	case 270:
		rotateA, rotateB, rotateC, rotateD = 0, -1, -1, 0
	default:
		rotateA, rotateB, rotateC, rotateD = 1, 0, 0, -1
	}
	if p.DontFlip {
		rotateC, rotateD = -rotateC, -rotateD
	}

	scale := p.Scale
	var offsetCanvasX, offsetCanvasY, width, height float64
	if rotateA == 0 {
		offsetCanvasX = math.Abs(centerY-box.Y.Lo)*scale + p.OffsetX
		offsetCanvasY = math.Abs(centerX-box.X.Lo)*scale + p.OffsetY
		width = math.Abs(box.Y.Hi-box.Y.Lo) * scale
		height = math.Abs(box.X.Hi-box.X.Lo) * scale
	} else {
		offsetCanvasX = math.Abs(centerX-box.X.Lo)*scale + p.OffsetX
		offsetCanvasY = math.Abs(centerY-box.Y.Lo)*scale + p.OffsetY
		width = math.Abs(box.X.Hi-box.X.Lo) * scale
		height = math.Abs(box.Y.Hi-box.Y.Lo) * scale
	}

	// x' = a*x + c*y + e, y' = b*x + d*y + f in PDF notation.
	m := gg.Matrix{
		A: rotateA * scale, B: rotateC * scale, C: offsetCanvasX - rotateA*scale*centerX - rotateC*scale*centerY,
		D: rotateB * scale, E: rotateD * scale, F: offsetCanvasY - rotateB*scale*centerX - rotateD*scale*centerY,
	}

	return &Viewport{
		viewBox:   box,
		scale:     scale,
		rotation:  rotation,
		offsetX:   p.OffsetX,
		offsetY:   p.OffsetY,
		dontFlip:  p.DontFlip,
		width:     width,
		height:    height,
		transform: m,
	}, nil
}

// CloneParams overrides selected fields when cloning. Nil fields keep the
// value of the source viewport.
type CloneParams struct {
	Scale    *float64
	Rotation *int
	OffsetX  *float64
	OffsetY  *float64
	DontFlip *bool
}

// Clone returns a new viewport derived from v.
func (v *Viewport) Clone(p CloneParams) (*Viewport, error) {
	params := v.Params()
	if p.Scale != nil {
		params.Scale = *p.Scale
	}
	if p.Rotation != nil {
		params.Rotation = *p.Rotation
	}
	if p.OffsetX != nil {
		params.OffsetX = *p.OffsetX
	}
	if p.OffsetY != nil {
		params.OffsetY = *p.OffsetY
	}
	if p.DontFlip != nil {
		params.DontFlip = *p.DontFlip
	}
	return New(params)
}

// Params returns the parameters v was built from.
func (v *Viewport) Params() Params {
	return Params{
		ViewBox:  v.viewBox,
		Scale:    v.scale,
		Rotation: v.rotation,
		OffsetX:  v.offsetX,
		OffsetY:  v.offsetY,
		DontFlip: v.dontFlip,
	}
}

// ViewBox returns the page box the viewport projects.
func (v *Viewport) ViewBox() r2.Rect { return v.viewBox }

// Scale returns the zoom factor.
func (v *Viewport) Scale() float64 { return v.scale }

// Rotation returns the normalised rotation in degrees.
func (v *Viewport) Rotation() int { return v.rotation }

// Width returns the projected width in surface units.
func (v *Viewport) Width() float64 { return v.width }

// Height returns the projected height in surface units.
func (v *Viewport) Height() float64 { return v.height }

// Transform returns the page → surface transformation.
func (v *Viewport) Transform() gg.Matrix { return v.transform }

// Equal reports whether v and o describe the same projection.
// Nil viewports are only equal to each other.
func (v *Viewport) Equal(o *Viewport) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.Params() == o.Params()
}

// ConvertToViewportPoint maps a page point onto the surface.
func (v *Viewport) ConvertToViewportPoint(x, y float64) r2.Point {
	p := v.transform.TransformPoint(gg.Pt(x, y))
	return r2.Point{X: p.X, Y: p.Y}
}

// ConvertToViewportRect maps a page rectangle onto the surface. The result
// is normalised so that Lo <= Hi on both axes.
func (v *Viewport) ConvertToViewportRect(r r2.Rect) r2.Rect {
	p1 := v.ConvertToViewportPoint(r.X.Lo, r.Y.Lo)
	p2 := v.ConvertToViewportPoint(r.X.Hi, r.Y.Hi)
	return r2.RectFromPoints(p1, p2)
}

// ConvertToPdfPoint maps a surface point back into page space.
func (v *Viewport) ConvertToPdfPoint(x, y float64) r2.Point {
	p := v.transform.Invert().TransformPoint(gg.Pt(x, y))
	return r2.Point{X: p.X, Y: p.Y}
}

// String implements fmt.Stringer.
func (v *Viewport) String() string {
	return fmt.Sprintf("viewport(scale=%g rotation=%d %gx%g)", v.scale, v.rotation, v.width, v.height)
}
