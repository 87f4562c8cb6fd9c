// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed is returned by operations on a destroyed view.
	ErrDestroyed = errors.New("pageview: view destroyed")

	// ErrNoPage is returned by Draw before SetPdfPage.
	ErrNoPage = errors.New("pageview: no page set")

	// ErrInvalidState is returned when an operation is not legal in the
	// view's current state.
	ErrInvalidState = errors.New("pageview: invalid state")

	// ErrRenderingCancelled resolves a PaintTask that was cancelled. It is
	// never recorded as a render error.
	ErrRenderingCancelled = errors.New("pageview: rendering cancelled")
)

// RenderError is a render failure recorded on a view.
type RenderError struct {
	PageNumber int
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("pageview: page %d: render failed: %v", e.PageNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
