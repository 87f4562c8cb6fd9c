// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface provides the drawing targets a page is painted onto.
//
// Two variants share one contract: a canvas target rasterises immediately
// into a bitmap (gg.Context), a vector target records drawing commands
// (recording.Recorder) that can be played back later. The page renderer only
// sees the Canvas interface and does not know which variant it draws into.
//
// A Target is owned by the page view that created it for the lifetime of one
// render and is never shared between renders.
package surface

import (
	"image"

	"github.com/gogpu/gg"
)

// Kind identifies a target variant.
type Kind uint8

const (
	// KindCanvas is a raster bitmap target.
	KindCanvas Kind = iota

	// KindVector is a recorded vector target.
	KindVector
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCanvas:
		return "canvas"
	case KindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Canvas is the drawing API a page renderer uses. It is implemented by
// *gg.Context and by the vector recorder.
type Canvas interface {
	Width() int
	Height() int

	Push()
	Pop()
	Identity()
	Translate(x, y float64)
	Scale(sx, sy float64)
	Rotate(angle float64)

	ClearWithColor(c gg.RGBA)
	SetRGBA(r, g, b, a float64)
	SetLineWidth(width float64)

	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	ClosePath()
	DrawRectangle(x, y, w, h float64)

	Fill() error
	Stroke() error
}

// Target is a drawing surface together with its lifecycle.
type Target interface {
	// Kind reports the variant.
	Kind() Kind

	// Width and Height are the target size in device pixels.
	Width() int
	Height() int

	// Canvas returns the drawing API.
	Canvas() Canvas

	// Snapshot returns the current content as an image.
	Snapshot() (image.Image, error)

	// Close releases the target. Close is idempotent.
	Close() error
}

// Options configures a new target.
type Options struct {
	// Width and Height in device pixels. Values below 1 are raised to 1.
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	return max(o.Width, 1), max(o.Height, 1)
}
