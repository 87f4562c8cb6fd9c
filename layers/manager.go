// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package layers owns the overlays stacked on a painted page: the text
// layer, the annotation layer, the XFA form layer and the structure tree.
//
// Layers are built lazily for the content a page actually has, once per
// build cycle. Each cycle is identified by a token and tied to the viewport
// it was started for; a continuation that finds either changed drops its
// result. Data for a cycle is fetched concurrently and applied on the run
// loop.
package layers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/highlight"
	"github.com/gogpu/pageview/overlay"
	"github.com/gogpu/pageview/runloop"
	"github.com/gogpu/pageview/surface"
	"github.com/gogpu/pageview/textlayer"
	"github.com/gogpu/pageview/viewport"
)

// Layer root classes.
const (
	ClassTextLayer       = textlayer.ClassTextLayer
	ClassAnnotationLayer = "annotationLayer"
	ClassXFALayer        = "xfaLayer"
	ClassStructTree      = "structTree"
)

var (
	// ErrNoPage is returned by Build before a page is set.
	ErrNoPage = errors.New("layers: no page")

	// ErrNoViewport is returned by Build without a viewport.
	ErrNoViewport = errors.New("layers: no viewport")
)

// Slot identifies a layer.
type Slot int

const (
	SlotText Slot = iota
	SlotAnnotation
	SlotXFA
	SlotStructTree
)

// String implements fmt.Stringer.
func (s Slot) String() string {
	switch s {
	case SlotText:
		return "text"
	case SlotAnnotation:
		return "annotation"
	case SlotXFA:
		return "xfa"
	case SlotStructTree:
		return "structTree"
	default:
		return "unknown"
	}
}

// TextLayerMode selects whether and how the text layer is built.
type TextLayerMode int

const (
	TextLayerDisabled TextLayerMode = iota
	TextLayerEnabled
	TextLayerEnhanced
)

// Keep lists layers that survive a cancel. Kept layers are hidden and
// updated in place by the next build.
type Keep struct {
	Annotation bool
	XFA        bool
}

// Options configures a Manager.
type Options struct {
	Loop *runloop.Loop
	Bus  *eventbus.Bus

	// Container is the page node layer roots are appended to.
	Container *overlay.Node
	PageIndex int // 0-based

	TextLayerMode  TextLayerMode
	TextLayerDelay time.Duration
	AnnotationMode document.AnnotationMode

	Finder   highlight.MatchFinder
	Measurer textlayer.Measurer
	Logger   *slog.Logger
}

// plan is what a cycle builds.
type plan struct {
	xfa, annotations, text bool
}

// fetched is the data of one cycle. Each field pair is written by a single
// goroutine.
type fetched struct {
	annots    []document.Annotation
	annotsErr error

	stream    document.TextContentStream
	streamErr error

	form    *document.XFANode
	formErr error

	xfaText    *document.TextContent
	xfaTextErr error
}

// Manager builds and tears down the layers of one page view.
//
// A Manager lives on the run loop; none of its methods are safe for
// concurrent use.
type Manager struct {
	opts Options
	log  *slog.Logger

	page document.Page
	vp   *viewport.Viewport
	kind surface.Kind

	cycle    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	fetching bool

	text        *textlayer.Builder
	highlighter *highlight.Highlighter
	annotation  *annotationLayer
	xfa         *xfaLayer
	structTree  *overlay.Node
}

// New creates a manager with no layers.
func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Container == nil {
		opts.Container = overlay.New("div", "page")
	}
	return &Manager{opts: opts, log: log}
}

// SetPage binds the page layers are built from. It does not touch existing
// layers.
func (m *Manager) SetPage(p document.Page) { m.page = p }

// Container returns the node layer roots are attached to.
func (m *Manager) Container() *overlay.Node { return m.opts.Container }

// Viewport returns the viewport of the current cycle.
func (m *Manager) Viewport() *viewport.Viewport { return m.vp }

// Building reports whether the current cycle is still fetching data.
func (m *Manager) Building() bool { return m.fetching }

// Layer returns the root node of a layer, or nil when it is absent.
func (m *Manager) Layer(s Slot) *overlay.Node {
	switch s {
	case SlotText:
		if m.text != nil {
			return m.text.Root()
		}
	case SlotAnnotation:
		if m.annotation != nil {
			return m.annotation.root
		}
	case SlotXFA:
		if m.xfa != nil {
			return m.xfa.root
		}
	case SlotStructTree:
		return m.structTree
	}
	return nil
}

// TextLayer returns the current text layer builder, or nil.
func (m *Manager) TextLayer() *textlayer.Builder { return m.text }

// Highlighter returns the highlighter bound to the current text layer, or
// nil.
func (m *Manager) Highlighter() *highlight.Highlighter { return m.highlighter }

// Build starts a build cycle for vp after a successful paint onto a target
// of the given kind. Any cycle in progress is abandoned.
func (m *Manager) Build(vp *viewport.Viewport, kind surface.Kind) error {
	if m.page == nil {
		return ErrNoPage
	}
	if vp == nil {
		return ErrNoViewport
	}
	m.abort()
	m.cycle++
	token := m.cycle
	m.vp, m.kind = vp, kind
	m.ctx, m.cancel = context.WithCancel(context.Background())

	pureXFA := m.page.IsPureXFA()
	p := plan{
		xfa:         pureXFA,
		annotations: !pureXFA && m.opts.AnnotationMode != document.AnnotationsDisabled,
		text:        !pureXFA && m.opts.TextLayerMode != TextLayerDisabled,
	}
	if !p.xfa && !p.annotations && !p.text {
		return nil
	}

	m.fetching = true
	page, ctx := m.page, m.ctx
	var (
		r   *fetched
		err error
	)
	m.opts.Loop.Go(func() {
		r, err = fetch(ctx, page, p)
	}, func() {
		if !m.current(token, vp) {
			return
		}
		m.fetching = false
		if err != nil {
			m.log.Debug("layers: fetch incomplete", "page", m.pageNumber(), "err", err)
		}
		if p.xfa {
			m.applyXFA(r, vp)
		}
		if p.annotations {
			m.applyAnnotations(r, vp)
		}
		if p.text {
			m.applyText(token, vp, r)
		}
	})
	return nil
}

// fetch loads the data of one cycle. Layers fail independently: each
// error is kept on r for its layer, and the returned error is only the
// first of them. The XFA form and its text are fetched as one unit, so a
// failure of either cancels the other.
func fetch(ctx context.Context, page document.Page, p plan) (*fetched, error) {
	r := &fetched{}
	var g errgroup.Group
	if p.xfa {
		g.Go(func() error {
			xg, xctx := errgroup.WithContext(ctx)
			xg.Go(func() error {
				r.form, r.formErr = page.XFA(xctx)
				return r.formErr
			})
			xg.Go(func() error {
				r.xfaText, r.xfaTextErr = page.TextContent(xctx, document.TextContentOptions{})
				return r.xfaTextErr
			})
			return xg.Wait()
		})
	}
	if p.annotations {
		g.Go(func() error {
			r.annots, r.annotsErr = page.Annotations(ctx, document.IntentDisplay)
			return r.annotsErr
		})
	}
	if p.text {
		g.Go(func() error {
			r.stream, r.streamErr = page.StreamTextContent(ctx, document.TextContentOptions{
				IncludeMarkedContent: true,
			})
			return r.streamErr
		})
	}
	return r, g.Wait()
}

func (m *Manager) current(token uint64, vp *viewport.Viewport) bool {
	return token == m.cycle && vp == m.vp
}

// live reports whether token is still the current cycle. It guards work
// that carries no geometry and survives in-place viewport updates.
func (m *Manager) live(token uint64) bool { return token == m.cycle }

func (m *Manager) pageNumber() int { return m.opts.PageIndex + 1 }

func (m *Manager) applyXFA(r *fetched, vp *viewport.Viewport) {
	if r.formErr != nil {
		m.log.Warn("layers: XFA layer failed", "page", m.pageNumber(), "err", r.formErr)
		m.dispatch(eventbus.XFALayerRenderedEvent{PageNumber: m.pageNumber(), Error: r.formErr})
		return
	}
	var err error
	if m.xfa == nil {
		m.xfa = newXFALayer()
		m.opts.Container.Append(m.xfa.root)
		err = m.xfa.render(r.form, vp)
	} else {
		err = m.xfa.update(vp)
	}
	m.dispatch(eventbus.XFALayerRenderedEvent{PageNumber: m.pageNumber(), Error: err})
	if err != nil {
		m.log.Warn("layers: XFA layer failed", "page", m.pageNumber(), "err", err)
		return
	}

	if r.xfaTextErr != nil {
		m.log.Warn("layers: XFA text content failed", "page", m.pageNumber(), "err", r.xfaTextErr)
		return
	}
	if r.xfaText == nil {
		m.log.Warn("layers: XFA page has no text content", "page", m.pageNumber())
		return
	}
	texts := make([]string, 0, len(r.xfaText.Items))
	for _, it := range r.xfaText.Items {
		texts = append(texts, it.Str)
	}
	h := m.newHighlighter()
	if err := h.SetTextMapping(m.xfa.textDivs, texts); err != nil {
		m.log.Warn("layers: bind XFA text", "page", m.pageNumber(), "err", err)
		return
	}
	_ = h.Enable()
}

func (m *Manager) applyAnnotations(r *fetched, vp *viewport.Viewport) {
	if r.annotsErr != nil {
		m.log.Warn("layers: annotation layer failed", "page", m.pageNumber(), "err", r.annotsErr)
		if m.annotation != nil {
			m.annotation.root.Remove()
			m.annotation = nil
		}
		m.dispatch(eventbus.AnnotationLayerRenderedEvent{PageNumber: m.pageNumber(), Error: r.annotsErr})
		return
	}
	switch {
	case m.annotation != nil:
		m.annotation.update(vp)
	case len(r.annots) > 0:
		m.annotation = newAnnotationLayer()
		m.opts.Container.Append(m.annotation.root)
		m.annotation.render(r.annots, vp, m.opts.AnnotationMode == document.AnnotationsEnabledForms)
	default:
		return
	}
	m.dispatch(eventbus.AnnotationLayerRenderedEvent{PageNumber: m.pageNumber()})
}

func (m *Manager) applyText(token uint64, vp *viewport.Viewport, r *fetched) {
	if r.streamErr != nil {
		m.log.Warn("layers: text content failed", "page", m.pageNumber(), "err", r.streamErr)
		return
	}
	m.destroyText()
	h := m.newHighlighter()
	m.text = textlayer.New(textlayer.Options{
		Loop:                 m.opts.Loop,
		Bus:                  m.opts.Bus,
		PageIndex:            m.opts.PageIndex,
		Viewport:             vp,
		Highlighter:          h,
		EnhanceTextSelection: m.opts.TextLayerMode == TextLayerEnhanced,
		Measurer:             m.opts.Measurer,
		Logger:               m.log,
		OnRendered:           func() { m.onTextLayerRendered(token) },
	})
	m.opts.Container.Append(m.text.Root())
	m.text.SetTextContentStream(r.stream)
	if err := m.text.Render(m.opts.TextLayerDelay); err != nil {
		m.log.Warn("layers: text layer", "page", m.pageNumber(), "err", err)
	}
}

// onTextLayerRendered builds the structure tree, which references text
// fragments and is only useful over a canvas. The tree has no geometry, so
// an in-place Update of the cycle does not invalidate it.
func (m *Manager) onTextLayerRendered(token uint64) {
	if !m.live(token) || m.kind != surface.KindCanvas {
		return
	}
	page, ctx := m.page, m.ctx
	var (
		tree *document.StructNode
		err  error
	)
	m.opts.Loop.Go(func() {
		tree, err = page.StructTree(ctx)
	}, func() {
		if !m.live(token) {
			return
		}
		if err != nil {
			m.log.Warn("layers: structure tree failed", "page", m.pageNumber(), "err", err)
			return
		}
		if tree == nil {
			return
		}
		m.destroyStructTree()
		m.structTree = overlay.New("div", ClassStructTree)
		m.structTree.Append(buildStructTree(tree))
		m.opts.Container.Append(m.structTree)
	})
}

// Update moves the layers to vp without rebuilding them. A cycle still
// fetching data is restarted for vp.
func (m *Manager) Update(vp *viewport.Viewport) error {
	if vp == nil {
		return ErrNoViewport
	}
	if m.fetching {
		return m.Build(vp, m.kind)
	}
	m.vp = vp
	if m.text != nil {
		built := m.text.Viewport().Transform()
		m.text.Root().Transform = vp.Transform().Multiply(built.Invert())
	}
	if m.annotation != nil {
		m.annotation.update(vp)
	}
	if m.xfa != nil {
		if err := m.xfa.update(vp); err != nil {
			return err
		}
	}
	return nil
}

// Cancel abandons the current cycle and removes the text layer and the
// structure tree. Annotation and XFA layers are removed unless kept.
func (m *Manager) Cancel(keep Keep) {
	m.abort()
	m.cycle++
	m.destroyText()
	m.destroyStructTree()

	if m.annotation != nil {
		if keep.Annotation {
			m.annotation.root.SetHidden(true)
		} else {
			m.annotation.root.Remove()
			m.annotation = nil
		}
	}
	if m.xfa != nil {
		if keep.XFA {
			m.xfa.root.SetHidden(true)
		} else {
			m.xfa.root.Remove()
			m.xfa = nil
		}
	}
}

// Destroy removes every layer and unbinds the page.
func (m *Manager) Destroy() {
	m.Cancel(Keep{})
	m.page = nil
	m.vp = nil
}

func (m *Manager) abort() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.fetching = false
}

func (m *Manager) newHighlighter() *highlight.Highlighter {
	if m.highlighter != nil {
		m.highlighter.Close()
	}
	m.highlighter = highlight.New(highlight.Options{
		Finder:    m.opts.Finder,
		Bus:       m.opts.Bus,
		PageIndex: m.opts.PageIndex,
		Logger:    m.log,
	})
	return m.highlighter
}

func (m *Manager) destroyText() {
	if m.text != nil {
		m.text.Destroy()
		m.text = nil
	}
	if m.highlighter != nil {
		m.highlighter.Close()
		m.highlighter = nil
	}
}

func (m *Manager) destroyStructTree() {
	if m.structTree != nil {
		m.structTree.Remove()
		m.structTree = nil
	}
}

func (m *Manager) dispatch(e eventbus.Event) {
	if m.opts.Bus != nil {
		m.opts.Bus.Dispatch(e)
	}
}
