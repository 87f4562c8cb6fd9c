// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/gogpu/pageview/surface"
)

// PaintTask is a handle over one rasterisation of a page. It is resolved
// exactly once: with nil on success, with a *RenderError on failure, or with
// ErrRenderingCancelled. A task is never reused.
type PaintTask struct {
	id     uint64
	target surface.Target

	ctx       context.Context
	stop      context.CancelFunc
	cancelled atomic.Bool

	done     chan struct{}
	resolved bool
	err      error
}

func newPaintTask(id uint64, target surface.Target) *PaintTask {
	ctx, stop := context.WithCancel(context.Background())
	return &PaintTask{
		id:     id,
		target: target,
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
	}
}

// ID is the render generation this task belongs to.
func (t *PaintTask) ID() uint64 { return t.id }

// Target is the surface the task paints onto.
func (t *PaintTask) Target() surface.Target { return t.target }

// Done is closed once the task is resolved.
func (t *PaintTask) Done() <-chan struct{} { return t.done }

// Err returns the resolution. It is nil until Done is closed.
func (t *PaintTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Resolved reports whether Done is closed. Call it on the run loop.
func (t *PaintTask) Resolved() bool { return t.resolved }

// Cancelled reports whether cancellation was requested. It is safe to call
// from the rendering goroutine.
func (t *PaintTask) Cancelled() bool { return t.cancelled.Load() }

// Cancel requests cancellation. The renderer observes it at its next
// continuation point; the task resolves with ErrRenderingCancelled once the
// owning view handles it on the run loop.
func (t *PaintTask) Cancel() {
	t.cancelled.Store(true)
	t.stop()
}

// resolve settles the task. Later calls are ignored.
func (t *PaintTask) resolve(err error) {
	if t.resolved {
		return
	}
	t.resolved = true
	t.err = err
	t.stop()
	close(t.done)
}

// outputScale is the CSS to device pixel factor of a canvas target.
// restricted is set when the factor was capped by the canvas pixel limit.
type outputScale struct {
	sx, sy     float64
	restricted bool
}

// approximateFraction finds the fraction with a denominator of at most 8
// closest to x.
func approximateFraction(x float64) (int, int) {
	if math.Floor(x) == x {
		return int(x), 1
	}
	const limit = 8
	xinv := 1 / x
	if xinv > limit {
		return 1, limit
	}
	if math.Floor(xinv) == xinv {
		return 1, int(xinv)
	}
	xr := x
	if x > 1 {
		xr = xinv
	}
	a, b, c, d := 0, 1, 1, 1
	for {
		p, q := a+c, b+d
		if q > limit {
			break
		}
		if xr <= float64(p)/float64(q) {
			c, d = p, q
		} else {
			a, b = p, q
		}
	}
	if xr-float64(a)/float64(b) < float64(c)/float64(d)-xr {
		if xr == x {
			return a, b
		}
		return b, a
	}
	if xr == x {
		return c, d
	}
	return d, c
}

// roundToDivide rounds x up to a multiple of div.
func roundToDivide(x float64, div int) int {
	r := math.Mod(x, float64(div))
	if r == 0 {
		return int(x)
	}
	return int(math.Round(x - r + float64(div)))
}
