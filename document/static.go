// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"

	"github.com/gogpu/pageview/surface"
)

// StaticPage is an in-memory Page. Render paints the page background and a
// filled box for every text item, calling Continue between items.
//
// The error fields let callers simulate provider failures.
type StaticPage struct {
	Number    int
	Box       r2.Rect
	Rotation  int
	PureXFA   bool
	Chunks    []*TextContent
	Annots    []Annotation
	Form      *XFANode
	Structure *StructNode

	Background gg.RGBA
	Ink        gg.RGBA

	RenderErr      error
	TextErr        error
	AnnotationsErr error
	XFAErr         error
	StructTreeErr  error

	// Gate, when non-nil, holds Render until it is closed or receives.
	Gate <-chan struct{}

	mu      sync.Mutex
	renders int
	cleaned int
}

var _ Page = (*StaticPage)(nil)

// PageNumber implements Page.
func (p *StaticPage) PageNumber() int { return p.Number }

// View implements Page.
func (p *StaticPage) View() r2.Rect { return p.Box }

// Rotate implements Page.
func (p *StaticPage) Rotate() int { return p.Rotation }

// IsPureXFA implements Page.
func (p *StaticPage) IsPureXFA() bool { return p.PureXFA }

// Renders returns how many times Render was entered.
func (p *StaticPage) Renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

// Cleanups returns how many times Cleanup was called.
func (p *StaticPage) Cleanups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleaned
}

// Cleanup implements Cleaner.
func (p *StaticPage) Cleanup() {
	p.mu.Lock()
	p.cleaned++
	p.mu.Unlock()
}

// Render implements Page.
func (p *StaticPage) Render(ctx context.Context, rp RenderParams) error {
	p.mu.Lock()
	p.renders++
	p.mu.Unlock()

	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if rp.Canvas == nil || rp.Viewport == nil {
		return fmt.Errorf("document: page %d: render needs a canvas and a viewport", p.Number)
	}

	m := rp.Transform.Multiply(rp.Viewport.Transform())
	c := rp.Canvas
	c.Push()
	defer c.Pop()
	c.Identity()

	bg := p.Background
	if bg == (gg.RGBA{}) {
		bg = gg.White
	}
	c.ClearWithColor(bg)

	ink := p.Ink
	if ink == (gg.RGBA{}) {
		ink = gg.RGBA{R: 0.2, G: 0.2, B: 0.2, A: 1}
	}
	c.SetRGBA(ink.R, ink.G, ink.B, ink.A)

	for _, chunk := range p.Chunks {
		for _, it := range chunk.Items {
			if rp.Continue != nil {
				if err := rp.Continue(ctx); err != nil {
					return err
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			fillQuad(c, m, it)
			if err := c.Fill(); err != nil {
				return fmt.Errorf("document: page %d: %w", p.Number, err)
			}
		}
	}
	return p.RenderErr
}

// fillQuad adds the box of a text item to the current path. In item space
// the baseline runs along x and one em is one unit tall.
func fillQuad(c surface.Canvas, m gg.Matrix, it TextItem) {
	t := m.Multiply(it.Transform)
	w := it.Width
	if s := math.Hypot(it.Transform.A, it.Transform.D); s > 0 {
		w /= s
	}
	pts := [4]gg.Point{
		{X: 0, Y: -0.2},
		{X: w, Y: -0.2},
		{X: w, Y: 0.8},
		{X: 0, Y: 0.8},
	}
	for i, pt := range pts {
		q := t.TransformPoint(pt)
		if i == 0 {
			c.MoveTo(q.X, q.Y)
		} else {
			c.LineTo(q.X, q.Y)
		}
	}
	c.ClosePath()
}

// StreamTextContent implements Page.
func (p *StaticPage) StreamTextContent(ctx context.Context, _ TextContentOptions) (TextContentStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.TextErr != nil {
		return nil, p.TextErr
	}
	return NewSliceStream(p.Chunks...), nil
}

// TextContent implements Page.
func (p *StaticPage) TextContent(ctx context.Context, _ TextContentOptions) (*TextContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.TextErr != nil {
		return nil, p.TextErr
	}
	out := &TextContent{Styles: make(map[string]TextStyle)}
	for _, c := range p.Chunks {
		out.Items = append(out.Items, c.Items...)
		for k, v := range c.Styles {
			out.Styles[k] = v
		}
		if out.Lang == "" {
			out.Lang = c.Lang
		}
	}
	return out, nil
}

// Annotations implements Page. Print intent omits hidden annotations.
func (p *StaticPage) Annotations(ctx context.Context, intent Intent) ([]Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.AnnotationsErr != nil {
		return nil, p.AnnotationsErr
	}
	out := make([]Annotation, 0, len(p.Annots))
	for _, a := range p.Annots {
		if intent == IntentPrint && a.Hidden {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// XFA implements Page.
func (p *StaticPage) XFA(ctx context.Context) (*XFANode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.XFAErr != nil {
		return nil, p.XFAErr
	}
	if p.Form == nil {
		return nil, ErrNoXFA
	}
	return p.Form, nil
}

// StructTree implements Page.
func (p *StaticPage) StructTree(ctx context.Context) (*StructNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Structure, p.StructTreeErr
}

// TextLines lays plain text lines out as text items on a page of the given
// box, one item per line, top to bottom.
func TextLines(box r2.Rect, fontSize float64, lines ...string) *TextContent {
	const charWidth = 0.5
	tc := &TextContent{Styles: map[string]TextStyle{
		"g_d0_f1": {FontFamily: "sans-serif", Ascent: 0.8, Descent: -0.2},
	}}
	lead := fontSize * 1.2
	y := box.Y.Hi - fontSize - 36
	for _, ln := range lines {
		tc.Items = append(tc.Items, TextItem{
			Str:       ln,
			Transform: PDFMatrix(fontSize, 0, 0, fontSize, box.X.Lo+36, y),
			Width:     float64(len([]rune(ln))) * fontSize * charWidth,
			Height:    fontSize,
			FontName:  "g_d0_f1",
			HasEOL:    true,
		})
		y -= lead
	}
	return tc
}
