// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while page views log from the run loop.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for page views and the layers, text
// layers and highlighters they create. By default nothing is logged. Pass
// nil to restore the silent default.
//
// A page view captures the logger when it is created; WithLogger overrides
// it per view.
//
// Log levels used:
//   - [slog.LevelDebug]: render lifecycle (draw, pause, resume, cancel)
//   - [slog.LevelWarn]: recoverable problems (layer fetch failures, dropped matches)
//   - [slog.LevelError]: render failures
//
// Example:
//
//	pageview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
