// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/layers"
	"github.com/gogpu/pageview/overlay"
	"github.com/gogpu/pageview/runloop"
	"github.com/gogpu/pageview/surface"
	"github.com/gogpu/pageview/textlayer"
	"github.com/gogpu/pageview/viewport"
)

// Classes of the nodes a view keeps in its container.
const (
	ClassPage           = "page"
	ClassLoading        = "loadingIcon"
	ClassRenderingError = "renderingError"
)

// PageView renders one page and owns the overlays stacked on it.
//
// A PageView lives on its run loop: every method must be called from the
// goroutine driving the loop, and every callback it registers runs there.
type PageView struct {
	id   int
	opts options
	log  *slog.Logger

	loop    *runloop.Loop
	bus     *eventbus.Bus
	queue   RenderingQueue
	entry   *surface.RegistryEntry
	painter painter

	page            document.Page
	pageRotate      int
	scale           float64
	rotation        int
	optionalContent document.OptionalContentFunc
	viewport        *viewport.Viewport

	state     RenderingState
	renderErr error
	label     string

	// gen identifies the current render; continuations of older renders
	// compare against it and drop their results.
	gen    uint64
	task   *PaintTask
	resume func()

	target          surface.Target
	paintedViewport *viewport.Viewport
	display         gg.Matrix
	restricted      bool
	zoomLayer       surface.Target
	zoomViewport    *viewport.Viewport

	div     *overlay.Node
	loading *overlay.Node
	errNode *overlay.Node
	layers  *layers.Manager
}

// New creates a view for the 1-based page number. The view has no page
// bound until SetPdfPage.
func New(pageNumber int, opts ...Option) (*PageView, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.loop == nil {
		o.loop = runloop.New()
	}
	if o.registry == nil {
		o.registry = surface.DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.l10n == nil {
		o.l10n = DefaultL10n
	}
	if o.scale <= 0 {
		return nil, fmt.Errorf("pageview: scale %v: %w", o.scale, viewport.ErrInvalidScale)
	}
	if o.renderer == "" {
		names := o.registry.List()
		if len(names) == 0 {
			return nil, surface.ErrNoRenderer
		}
		o.renderer = names[0]
	}
	entry, ok := o.registry.Get(o.renderer)
	if !ok {
		return nil, &surface.RendererNotFoundError{Name: o.renderer}
	}
	if o.measurer == nil && o.textLayerMode != layers.TextLayerDisabled {
		m, err := textlayer.DefaultMeasurer()
		if err != nil {
			return nil, fmt.Errorf("pageview: text measurer: %w", err)
		}
		o.measurer = m
	}

	v := &PageView{
		id:              pageNumber,
		opts:            o,
		log:             o.logger.With("page", pageNumber),
		loop:            o.loop,
		bus:             o.bus,
		queue:           o.queue,
		entry:           entry,
		painter:         newPainter(entry.Kind),
		scale:           o.scale,
		rotation:        o.rotation,
		optionalContent: o.optionalContent,
		viewport:        o.defaultViewport,
		display:         gg.Identity(),
	}
	v.div = overlay.New("div", ClassPage)
	v.div.SetAttr("data-page-number", strconv.Itoa(pageNumber))
	v.div.SetAttr("role", "region")
	v.div.SetAttr("aria-label", o.l10n("page_landmark",
		map[string]string{"page": strconv.Itoa(pageNumber)}, "Page {{page}}"))

	v.layers = layers.New(layers.Options{
		Loop:           v.loop,
		Bus:            v.bus,
		Container:      v.div,
		PageIndex:      pageNumber - 1,
		TextLayerMode:  o.textLayerMode,
		TextLayerDelay: o.textLayerDelay,
		AnnotationMode: o.annotationMode,
		Finder:         o.finder,
		Measurer:       o.measurer,
		Logger:         v.log,
	})
	v.showLoading()
	return v, nil
}

// ID returns the 1-based page number.
func (v *PageView) ID() int { return v.id }

// State returns the rendering state.
func (v *PageView) State() RenderingState { return v.state }

// RenderError returns the error of the last finished render, if it failed.
func (v *PageView) RenderError() error { return v.renderErr }

// PaintTask returns the task of the current or last render, or nil.
func (v *PageView) PaintTask() *PaintTask { return v.task }

// Viewport returns the viewport the next or current render uses.
func (v *PageView) Viewport() *viewport.Viewport { return v.viewport }

// Width is the page width in CSS pixels, zero without a viewport.
func (v *PageView) Width() float64 {
	if v.viewport == nil {
		return 0
	}
	return v.viewport.Width()
}

// Height is the page height in CSS pixels, zero without a viewport.
func (v *PageView) Height() float64 {
	if v.viewport == nil {
		return 0
	}
	return v.viewport.Height()
}

// Scale returns the zoom factor, 1 meaning 100%.
func (v *PageView) Scale() float64 { return v.scale }

// Rotation returns the view rotation added to the page's own rotation.
func (v *PageView) Rotation() int { return v.rotation }

// Div returns the page's container node.
func (v *PageView) Div() *overlay.Node { return v.div }

// Layers returns the view's layer manager.
func (v *PageView) Layers() *layers.Manager { return v.layers }

// Loop returns the run loop the view lives on.
func (v *PageView) Loop() *runloop.Loop { return v.loop }

// Target returns the surface holding the last painted page, or nil.
func (v *PageView) Target() surface.Target { return v.target }

// DisplayTransform maps the painted surface onto the current viewport. It
// is the identity unless the last Update zoomed without repainting.
func (v *PageView) DisplayTransform() gg.Matrix { return v.display }

// HasRestrictedScaling reports whether the last render was painted below
// the output scale to stay within the canvas pixel limit.
func (v *PageView) HasRestrictedScaling() bool { return v.restricted }

// PageLabel returns the label set with SetPageLabel.
func (v *PageView) PageLabel() string { return v.label }

// SetPageLabel sets a display label such as "iv". An empty label removes
// it.
func (v *PageView) SetPageLabel(label string) {
	v.label = label
	v.div.SetAttr("data-page-label", label)
}

// PagePoint converts a point in viewport pixels to page units.
func (v *PageView) PagePoint(x, y float64) r2.Point {
	if v.viewport == nil {
		return r2.Point{}
	}
	return v.viewport.ConvertToPdfPoint(x, y)
}

// SetPdfPage binds the page to render. It is only legal while no render is
// in progress, and resets the view.
func (v *PageView) SetPdfPage(page document.Page) error {
	switch v.state {
	case StateDestroyed:
		return ErrDestroyed
	case StateInitial, StateFinished:
	default:
		return fmt.Errorf("%w: set page while %s", ErrInvalidState, v.state)
	}
	if page == nil {
		return ErrNoPage
	}
	rotate := page.Rotate()
	vp, err := viewport.New(viewport.Params{
		ViewBox:  page.View(),
		Scale:    v.scale * viewport.CSSUnits,
		Rotation: v.rotation + rotate,
	})
	if err != nil {
		return fmt.Errorf("pageview: page %d: %w", v.id, err)
	}
	v.page = page
	v.pageRotate = rotate
	v.viewport = vp
	v.layers.SetPage(page)
	v.Reset(ResetParams{})
	return nil
}

// Destroy cancels any work, removes every layer and surface and releases
// the page. The view cannot be used afterwards.
func (v *PageView) Destroy() {
	if v.state == StateDestroyed {
		return
	}
	v.Reset(ResetParams{})
	v.layers.Destroy()
	if c, ok := v.page.(document.Cleaner); ok {
		c.Cleanup()
	}
	v.page = nil
	v.div.RemoveChildren()
	v.loading = nil
	v.state = StateDestroyed
	v.log.Debug("pageview: destroyed")
}

func (v *PageView) dispatch(e eventbus.Event) {
	if v.bus != nil {
		v.bus.Dispatch(e)
	}
}

func (v *PageView) showLoading() {
	if v.loading != nil {
		return
	}
	v.loading = overlay.NewText("div", v.opts.l10n("loading", nil, "Loading…"))
	v.loading.AddClass(ClassLoading)
	v.div.Append(v.loading)
}

func (v *PageView) hideLoading() {
	if v.loading != nil {
		v.loading.Remove()
		v.loading = nil
	}
}

func (v *PageView) showError() {
	if v.errNode != nil {
		return
	}
	v.errNode = overlay.NewText("div", v.opts.l10n("rendering_error", nil,
		"An error occurred while rendering the page."))
	v.errNode.AddClass(ClassRenderingError)
	v.div.Append(v.errNode)
}

func (v *PageView) hideError() {
	if v.errNode != nil {
		v.errNode.Remove()
		v.errNode = nil
	}
}
