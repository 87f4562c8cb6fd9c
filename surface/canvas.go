// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"

	"github.com/gogpu/gg"
)

// ErrClosed is returned when a closed target is used.
var ErrClosed = errors.New("surface: target closed")

// CanvasTarget is a raster target backed by a gg.Context.
type CanvasTarget struct {
	dc     *gg.Context
	closed bool
}

// NewCanvas creates a raster target.
func NewCanvas(opts Options) *CanvasTarget {
	w, h := opts.size()
	return &CanvasTarget{dc: gg.NewContext(w, h)}
}

// Kind implements Target.
func (t *CanvasTarget) Kind() Kind { return KindCanvas }

// Width implements Target.
func (t *CanvasTarget) Width() int { return t.dc.Width() }

// Height implements Target.
func (t *CanvasTarget) Height() int { return t.dc.Height() }

// Canvas implements Target.
func (t *CanvasTarget) Canvas() Canvas { return t.dc }

// Context exposes the underlying gg context.
func (t *CanvasTarget) Context() *gg.Context { return t.dc }

// Snapshot implements Target.
func (t *CanvasTarget) Snapshot() (image.Image, error) {
	if t.closed {
		return nil, ErrClosed
	}
	return t.dc.Image(), nil
}

// Close implements Target.
func (t *CanvasTarget) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.dc.Close()
}
