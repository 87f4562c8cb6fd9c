// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"log/slog"
	"time"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/highlight"
	"github.com/gogpu/pageview/layers"
	"github.com/gogpu/pageview/runloop"
	"github.com/gogpu/pageview/surface"
	"github.com/gogpu/pageview/textlayer"
	"github.com/gogpu/pageview/viewport"
)

// DefaultMaxCanvasPixels caps canvas targets at 16 mega-pixels.
const DefaultMaxCanvasPixels = 16777216

// Option configures a PageView during creation.
//
// Example:
//
//	v := pageview.New(3,
//	    pageview.WithLoop(loop),
//	    pageview.WithScale(1.5),
//	    pageview.WithRenderer(surface.RendererSVG),
//	)
type Option func(*options)

type options struct {
	loop     *runloop.Loop
	bus      *eventbus.Bus
	queue    RenderingQueue
	registry *surface.Registry
	renderer string

	scale           float64
	rotation        int
	defaultViewport *viewport.Viewport
	optionalContent document.OptionalContentFunc

	textLayerMode  layers.TextLayerMode
	textLayerDelay time.Duration
	annotationMode document.AnnotationMode
	finder         highlight.MatchFinder
	measurer       textlayer.Measurer

	outputScale     float64
	maxCanvasPixels int
	useOnlyCSSZoom  bool

	l10n   L10n
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		renderer:        surface.RendererCanvas,
		scale:           1,
		textLayerMode:   layers.TextLayerEnabled,
		annotationMode:  document.AnnotationsEnabledForms,
		outputScale:     1,
		maxCanvasPixels: DefaultMaxCanvasPixels,
		l10n:            DefaultL10n,
	}
}

// WithLoop sets the run loop the view lives on. Without it the view
// creates a private loop, reachable through Loop.
func WithLoop(l *runloop.Loop) Option {
	return func(o *options) { o.loop = l }
}

// WithEventBus sets the bus lifecycle events are dispatched on.
func WithEventBus(b *eventbus.Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithRenderingQueue sets the scheduler notified on render start, finish
// and cancel, and consulted before each chunk of a canvas render.
func WithRenderingQueue(q RenderingQueue) Option {
	return func(o *options) { o.queue = q }
}

// WithRenderer selects the surface variant by registry name.
func WithRenderer(name string) Option {
	return func(o *options) { o.renderer = name }
}

// WithRegistry sets the registry renderer names are resolved in.
func WithRegistry(r *surface.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithScale sets the initial zoom factor; 1 is 100%.
func WithScale(scale float64) Option {
	return func(o *options) { o.scale = scale }
}

// WithRotation sets the initial rotation in degrees, added to the page's
// own rotation.
func WithRotation(rotation int) Option {
	return func(o *options) { o.rotation = rotation }
}

// WithDefaultViewport sizes the view before a page is set.
func WithDefaultViewport(vp *viewport.Viewport) Option {
	return func(o *options) { o.defaultViewport = vp }
}

// WithOptionalContent sets how the optional content configuration is
// resolved before each render.
func WithOptionalContent(fn document.OptionalContentFunc) Option {
	return func(o *options) { o.optionalContent = fn }
}

// WithTextLayerMode selects whether the text layer is built.
func WithTextLayerMode(m layers.TextLayerMode) Option {
	return func(o *options) { o.textLayerMode = m }
}

// WithTextLayerDelay delays text layer building after a paint.
func WithTextLayerDelay(d time.Duration) Option {
	return func(o *options) { o.textLayerDelay = d }
}

// WithAnnotationMode sets how annotations are painted and whether the
// annotation layer is built.
func WithAnnotationMode(m document.AnnotationMode) Option {
	return func(o *options) { o.annotationMode = m }
}

// WithFinder sets the search controller the highlighter reads matches from.
func WithFinder(f highlight.MatchFinder) Option {
	return func(o *options) { o.finder = f }
}

// WithMeasurer sets the text measurer used to scale text fragments.
func WithMeasurer(m textlayer.Measurer) Option {
	return func(o *options) { o.measurer = m }
}

// WithOutputScale sets the device pixel ratio of canvas targets.
func WithOutputScale(ratio float64) Option {
	return func(o *options) { o.outputScale = ratio }
}

// WithMaxCanvasPixels caps the pixel count of canvas targets. Zero or a
// negative value removes the cap.
func WithMaxCanvasPixels(n int) Option {
	return func(o *options) { o.maxCanvasPixels = n }
}

// WithOnlyCSSZoom keeps the painted surface on zoom and applies a display
// transform instead of repainting.
func WithOnlyCSSZoom(enabled bool) Option {
	return func(o *options) { o.useOnlyCSSZoom = enabled }
}

// WithL10n sets the string lookup for placeholders and labels.
func WithL10n(fn L10n) Option {
	return func(o *options) { o.l10n = fn }
}

// WithLogger overrides the package logger for this view.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
