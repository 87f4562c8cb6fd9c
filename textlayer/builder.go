// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package textlayer builds the selectable text overlay of a page.
//
// A Builder turns text content into positioned fragment nodes, one per text
// item, together with the item strings. Fragments are built off-tree and
// attached in one step once all content has arrived, so a cancelled build
// leaves nothing behind. The (fragment, string) pairs are the text run index
// the highlighter maps match offsets onto.
package textlayer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/golang/geo/r2"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/overlay"
	"github.com/gogpu/pageview/runloop"
	"github.com/gogpu/pageview/viewport"
)

// Class names used on text layer nodes.
const (
	ClassTextLayer    = "textLayer"
	ClassEndOfContent = "endOfContent"
	ClassActive       = "active"
)

// ErrNoContent is returned by Render when neither text content nor a text
// content stream was set.
var ErrNoContent = errors.New("textlayer: no text content")

// ErrStreamConsumed is returned by Render when a text content stream was
// already read by an earlier build. Set a new stream to render again.
var ErrStreamConsumed = errors.New("textlayer: text content stream already read")

// Highlighter receives the text run index once it is complete.
type Highlighter interface {
	SetTextMapping(divs []*overlay.Node, texts []string) error
	Enable() error
}

// Options configures a Builder.
type Options struct {
	Loop      *runloop.Loop
	Bus       *eventbus.Bus
	PageIndex int // 0-based
	Viewport  *viewport.Viewport

	// Highlighter is bound to the fragments when rendering completes. It may
	// be nil.
	Highlighter Highlighter

	// EnhanceTextSelection adds an end-of-content node that extends the
	// selectable area while a selection is in progress.
	EnhanceTextSelection bool

	// Measurer computes horizontal fragment scaling. Nil disables scaling.
	Measurer Measurer

	// OnRendered runs after the textlayerrendered event.
	OnRendered func()

	Logger *slog.Logger
}

// Builder builds the text layer of one page for one viewport.
//
// A Builder lives on the run loop; none of its methods are safe for
// concurrent use.
type Builder struct {
	opts Options
	log  *slog.Logger
	root *overlay.Node

	content    *document.TextContent
	stream     document.TextContentStream
	streamRead bool

	divs   []*overlay.Node
	texts  []string
	styles map[string]document.TextStyle

	endOfContent  *overlay.Node
	renderingDone bool

	gen       uint64 // render cycle; continuations compare against it
	stopTimer func() bool
	cancel    context.CancelFunc
}

// New creates a builder with an empty layer root.
func New(opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		opts: opts,
		log:  log,
		root: overlay.New("div", ClassTextLayer),
	}
}

// Root is the layer node. Fragments are attached to it on completion.
func (b *Builder) Root() *overlay.Node { return b.root }

// Viewport returns the viewport fragments are positioned for.
func (b *Builder) Viewport() *viewport.Viewport { return b.opts.Viewport }

// SetTextContentStream sets the source for the next Render. It replaces any
// batch content.
func (b *Builder) SetTextContentStream(s document.TextContentStream) {
	b.stream = s
	b.streamRead = false
	b.content = nil
}

// SetTextContent sets a batch source for the next Render. It replaces any
// stream.
func (b *Builder) SetTextContent(c *document.TextContent) {
	b.content = c
	b.stream = nil
}

// RenderingDone reports whether the fragments are attached.
func (b *Builder) RenderingDone() bool { return b.renderingDone }

// TextDivs returns the fragment nodes, positionally aligned with Texts.
// Both are empty until rendering is done.
func (b *Builder) TextDivs() []*overlay.Node {
	if !b.renderingDone {
		return nil
	}
	return b.divs
}

// Texts returns the source strings of the fragments.
func (b *Builder) Texts() []string {
	if !b.renderingDone {
		return nil
	}
	return b.texts
}

// Div returns the fragment at index i, or nil.
func (b *Builder) Div(i int) *overlay.Node {
	if !b.renderingDone || i < 0 || i >= len(b.divs) {
		return nil
	}
	return b.divs[i]
}

// Render builds the fragments. With a positive delay the build starts once
// the delay has elapsed. Render is a no-op once rendering is done and
// restarts any build in progress. A stream can only be read once: restarting
// a build that already pulled from its stream fails with ErrStreamConsumed.
func (b *Builder) Render(delay time.Duration) error {
	if b.renderingDone {
		return nil
	}
	if b.content == nil && b.stream == nil {
		return ErrNoContent
	}
	if b.stream != nil && b.streamRead {
		return ErrStreamConsumed
	}
	b.Cancel()

	gen := b.gen
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.divs, b.texts = nil, nil
	b.styles = make(map[string]document.TextStyle)

	start := func() {
		if gen != b.gen {
			return
		}
		b.stopTimer = nil
		if b.stream != nil {
			b.streamRead = true
			b.pump(ctx, gen, b.stream)
			return
		}
		b.appendContent(b.content)
		b.finish()
	}
	if delay > 0 {
		b.stopTimer = b.opts.Loop.AfterFunc(delay, start)
		return nil
	}
	start()
	return nil
}

// pump reads one chunk off the loop and continues on it.
func (b *Builder) pump(ctx context.Context, gen uint64, s document.TextContentStream) {
	var (
		chunk *document.TextContent
		err   error
	)
	b.opts.Loop.Go(func() {
		chunk, err = s.Next(ctx)
	}, func() {
		if gen != b.gen {
			return
		}
		switch {
		case errors.Is(err, io.EOF):
			b.finish()
		case err != nil:
			b.log.Warn("textlayer: text content stream failed",
				"page", b.opts.PageIndex+1, "err", err)
			b.finish()
		default:
			b.appendContent(chunk)
			b.pump(ctx, gen, s)
		}
	})
}

// Cancel abandons a build in progress. Nothing is attached and
// RenderingDone stays false. Cancel after completion has no effect.
func (b *Builder) Cancel() {
	if b.renderingDone {
		return
	}
	b.gen++
	if b.stopTimer != nil {
		b.stopTimer()
		b.stopTimer = nil
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.divs, b.texts = nil, nil
}

func (b *Builder) appendContent(c *document.TextContent) {
	if c == nil {
		return
	}
	for k, v := range c.Styles {
		b.styles[k] = v
	}
	for _, it := range c.Items {
		b.divs = append(b.divs, b.layout(it))
		b.texts = append(b.texts, it.Str)
	}
}

// layout positions one fragment the way the glyph run was painted.
func (b *Builder) layout(it document.TextItem) *overlay.Node {
	vp := b.opts.Viewport
	style := b.styles[it.FontName]
	tx := vp.Transform().Multiply(it.Transform)

	angle := math.Atan2(tx.D, tx.A)
	if style.Vertical {
		angle += math.Pi / 2
	}
	fontHeight := math.Hypot(tx.B, tx.E)
	ascent := fontHeight
	switch {
	case style.Ascent != 0:
		ascent *= style.Ascent
	case style.Descent != 0:
		ascent *= 1 + style.Descent
	}

	var left, top float64
	if angle == 0 {
		left, top = tx.C, tx.F-ascent
	} else {
		left = tx.C + ascent*math.Sin(angle)
		top = tx.F - ascent*math.Cos(angle)
	}

	div := overlay.NewText("span", it.Str)
	div.FontSize = fontHeight
	div.Angle = angle
	dir := it.Dir
	if dir == "" {
		dir = Direction(it.Str)
	}
	div.SetAttr("dir", dir)
	if style.FontFamily != "" {
		div.SetAttr("font-family", style.FontFamily)
	}
	if it.MarkedContentID != "" {
		div.SetAttr("id", it.MarkedContentID)
	}

	canvasWidth := it.Width * vp.Scale()
	if style.Vertical {
		canvasWidth = it.Height * vp.Scale()
	}
	width := canvasWidth
	if m := b.opts.Measurer; m != nil && canvasWidth > 0 && len([]rune(it.Str)) > 1 {
		if measured := m.Measure(it.Str, fontHeight); measured > 0 {
			div.ScaleX = canvasWidth / measured
		}
	}
	div.Bounds = r2.RectFromPoints(r2.Point{X: left, Y: top}, r2.Point{X: left + width, Y: top + fontHeight})
	return div
}

func (b *Builder) finish() {
	b.cancel = nil
	for _, d := range b.divs {
		b.root.Append(d)
	}
	if b.opts.EnhanceTextSelection {
		b.endOfContent = overlay.New("div", ClassEndOfContent)
		b.root.Append(b.endOfContent)
	}
	b.renderingDone = true

	if b.opts.Bus != nil {
		b.opts.Bus.Dispatch(eventbus.TextLayerRenderedEvent{
			PageNumber:  b.opts.PageIndex + 1,
			NumTextDivs: len(b.divs),
		})
	}
	if h := b.opts.Highlighter; h != nil {
		if err := h.SetTextMapping(b.divs, b.texts); err != nil {
			b.log.Error("textlayer: bind highlighter", "page", b.opts.PageIndex+1, "err", err)
		} else if err := h.Enable(); err != nil {
			b.log.Error("textlayer: enable highlighter", "page", b.opts.PageIndex+1, "err", err)
		}
	}
	if b.opts.OnRendered != nil {
		b.opts.OnRendered()
	}
}

// SelectionStart marks a selection in progress. It reports false before
// the layer is attached or without enhanced selection.
func (b *Builder) SelectionStart() bool {
	if !b.renderingDone || b.endOfContent == nil {
		return false
	}
	b.endOfContent.AddClass(ClassActive)
	return true
}

// SelectionEnd clears the selection marker.
func (b *Builder) SelectionEnd() {
	if b.endOfContent != nil {
		b.endOfContent.RemoveClass(ClassActive)
	}
}

// Destroy detaches the layer root.
func (b *Builder) Destroy() {
	b.Cancel()
	b.root.Remove()
}
