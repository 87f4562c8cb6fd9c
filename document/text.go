// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"context"
	"io"

	"github.com/gogpu/gg"
)

// TextContentOptions tune text extraction.
type TextContentOptions struct {
	IncludeMarkedContent bool
	DisableNormalization bool
}

// TextItem is one run of text with uniform font and direction.
type TextItem struct {
	Str string

	// Dir is "ltr", "rtl" or "ttb"; empty means unknown.
	Dir string

	// Transform places the run's baseline origin in PDF units.
	Transform gg.Matrix

	// Width and Height of the run in PDF units.
	Width  float64
	Height float64

	FontName string
	HasEOL   bool

	// MarkedContentID links the run to a structure tree node.
	MarkedContentID string
}

// PDFMatrix converts a PDF transform array [a b c d e f] to a gg.Matrix.
func PDFMatrix(a, b, c, d, e, f float64) gg.Matrix {
	return gg.Matrix{A: a, B: c, C: e, D: b, E: d, F: f}
}

// TextStyle describes a font referenced by TextItem.FontName.
type TextStyle struct {
	FontFamily string
	Ascent     float64
	Descent    float64
	Vertical   bool
}

// TextContent is a batch of text items.
type TextContent struct {
	Items  []TextItem
	Styles map[string]TextStyle
	Lang   string
}

// TextContentStream yields text content in chunks. Next returns io.EOF
// after the last chunk.
type TextContentStream interface {
	Next(ctx context.Context) (*TextContent, error)
}

// SliceStream is a TextContentStream over prepared chunks.
type SliceStream struct {
	chunks []*TextContent
}

// NewSliceStream returns a stream yielding chunks in order.
func NewSliceStream(chunks ...*TextContent) *SliceStream {
	return &SliceStream{chunks: chunks}
}

// Next implements TextContentStream.
func (s *SliceStream) Next(ctx context.Context) (*TextContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}
