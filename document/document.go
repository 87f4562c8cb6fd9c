// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package document defines what a page view needs from the page-data
// provider: page geometry, rendering onto a surface, text content, and the
// annotation, XFA and structure-tree data the overlays are built from.
//
// Every method that takes a context may block. Implementations must return
// promptly once the context is done; the caller abandons the result anyway.
package document

import (
	"context"
	"errors"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"

	"github.com/gogpu/pageview/surface"
	"github.com/gogpu/pageview/viewport"
)

// ErrNoXFA is returned by Page.XFA for pages without XFA content.
var ErrNoXFA = errors.New("document: page has no XFA content")

// Page is one page of a loaded document.
type Page interface {
	// PageNumber is the 1-based page number.
	PageNumber() int

	// View is the page's view box in PDF units.
	View() r2.Rect

	// Rotate is the page's intrinsic rotation in degrees.
	Rotate() int

	// IsPureXFA reports whether the page content is an XFA form only.
	IsPureXFA() bool

	// Render paints the page onto p.Canvas.
	Render(ctx context.Context, p RenderParams) error

	// StreamTextContent returns the page text in chunks.
	StreamTextContent(ctx context.Context, opts TextContentOptions) (TextContentStream, error)

	// TextContent returns the page text in one batch. A nil result with a
	// nil error means the page has no text.
	TextContent(ctx context.Context, opts TextContentOptions) (*TextContent, error)

	// Annotations returns the page annotations for the given intent.
	Annotations(ctx context.Context, intent Intent) ([]Annotation, error)

	// XFA returns the XFA form tree, or ErrNoXFA.
	XFA(ctx context.Context) (*XFANode, error)

	// StructTree returns the accessibility structure tree. A nil tree with a
	// nil error means the page is untagged.
	StructTree(ctx context.Context) (*StructNode, error)
}

// Cleaner is implemented by pages that hold resources which can be dropped
// once a view stops displaying them.
type Cleaner interface {
	Cleanup()
}

// Intent selects what a render or an annotation query is for.
type Intent string

const (
	IntentDisplay Intent = "display"
	IntentPrint   Intent = "print"
)

// AnnotationMode controls how annotations are painted onto the surface.
type AnnotationMode int

const (
	// AnnotationsDisabled paints no annotations.
	AnnotationsDisabled AnnotationMode = iota

	// AnnotationsEnabled paints annotation appearances; widgets are left to
	// the annotation layer.
	AnnotationsEnabled

	// AnnotationsEnabledForms is AnnotationsEnabled with interactive forms
	// rendered by the annotation layer.
	AnnotationsEnabledForms

	// AnnotationsEnabledStorage paints form values from annotation storage.
	AnnotationsEnabledStorage
)

// RenderParams is the input to Page.Render.
type RenderParams struct {
	Canvas   surface.Canvas
	Viewport *viewport.Viewport

	// Transform is applied before the viewport transform; it maps CSS pixels
	// to device pixels.
	Transform gg.Matrix

	Intent          Intent
	AnnotationMode  AnnotationMode
	OptionalContent *OptionalContentConfig

	// Continue is called by the renderer between chunks of work. It blocks
	// while the render is paused and returns a non-nil error once the render
	// has been cancelled, after which Render must return that error. It may
	// be nil.
	Continue func(ctx context.Context) error
}

// OptionalContentConfig is the visibility state of optional content groups.
type OptionalContentConfig struct {
	Groups map[string]bool
}

// Visible reports whether the group with the given id is shown. Unknown
// groups are visible.
func (c *OptionalContentConfig) Visible(id string) bool {
	if c == nil {
		return true
	}
	v, ok := c.Groups[id]
	return !ok || v
}

// OptionalContentFunc resolves the optional content configuration, which
// the provider may still be loading.
type OptionalContentFunc func(ctx context.Context) (*OptionalContentConfig, error)
