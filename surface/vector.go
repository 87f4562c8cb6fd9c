// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"image"

	"github.com/gogpu/gg/recording"
	_ "github.com/gogpu/gg/recording/backends/raster" // registers the "raster" playback backend
)

// VectorTarget records drawing commands instead of rasterising them.
type VectorTarget struct {
	rec    *recording.Recorder
	canvas *vectorCanvas
	closed bool
}

// vectorCanvas adapts the recorder to Canvas. Recording never fails, so
// Fill and Stroke always return nil.
type vectorCanvas struct {
	*recording.Recorder
}

func (c *vectorCanvas) Fill() error {
	c.Recorder.Fill()
	return nil
}

func (c *vectorCanvas) Stroke() error {
	c.Recorder.Stroke()
	return nil
}

// NewVector creates a recording target.
func NewVector(opts Options) *VectorTarget {
	w, h := opts.size()
	rec := recording.NewRecorder(w, h)
	return &VectorTarget{rec: rec, canvas: &vectorCanvas{Recorder: rec}}
}

// Kind implements Target.
func (t *VectorTarget) Kind() Kind { return KindVector }

// Width implements Target.
func (t *VectorTarget) Width() int { return t.rec.Width() }

// Height implements Target.
func (t *VectorTarget) Height() int { return t.rec.Height() }

// Canvas implements Target.
func (t *VectorTarget) Canvas() Canvas { return t.canvas }

// Recording returns the commands recorded so far.
func (t *VectorTarget) Recording() *recording.Recording {
	return t.rec.FinishRecording()
}

// Snapshot rasterises the recording.
func (t *VectorTarget) Snapshot() (image.Image, error) {
	if t.closed {
		return nil, ErrClosed
	}
	backend, err := recording.NewBackend("raster")
	if err != nil {
		return nil, fmt.Errorf("surface: vector snapshot: %w", err)
	}
	if err := t.Recording().Playback(backend); err != nil {
		return nil, fmt.Errorf("surface: vector playback: %w", err)
	}
	pb, ok := backend.(recording.PixmapBackend)
	if !ok {
		return nil, fmt.Errorf("surface: raster backend %T has no pixmap", backend)
	}
	return pb.Pixmap().ToImage(), nil
}

// Close implements Target.
func (t *VectorTarget) Close() error {
	t.closed = true
	return nil
}
