// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package eventbus is the publish/subscribe channel a viewer uses to learn
// about page rendering progress.
//
// A Bus is constructed once by the viewer and passed to every page; there is
// no package-level instance. Dispatch delivers synchronously to the
// listeners registered at the time of the call, so publishers on the run
// loop observe listener side effects immediately.
package eventbus

import (
	"sync"
	"time"
)

// Event names published by pages and their layers.
const (
	PageRender              = "pagerender"
	PageRendered            = "pagerendered"
	PageRenderCancelled     = "pagerendercancelled"
	TextLayerRendered       = "textlayerrendered"
	AnnotationLayerRendered = "annotationlayerrendered"
	XFALayerRendered        = "xfalayerrendered"
	UpdateTextLayerMatches  = "updatetextlayermatches"
)

// Event is a published occurrence. Payload types below implement it.
type Event interface {
	EventName() string
}

// Handler receives dispatched events.
type Handler func(Event)

type listener struct {
	id uint64
	h  Handler
}

// Bus routes events to listeners by name.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]listener
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]listener)}
}

// On registers h for events named name. The returned function removes the
// registration; calling it more than once is harmless.
func (b *Bus) On(name string, h Handler) (off func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[name] = append(b.listeners[name], listener{id: id, h: h})
	b.mu.Unlock()

	return func() { b.off(name, id) }
}

func (b *Bus) off(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[name]
	for i, l := range ls {
		if l.id == id {
			b.listeners[name] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(b.listeners[name]) == 0 {
		delete(b.listeners, name)
	}
}

// Dispatch delivers evt to the listeners of evt.EventName().
func (b *Bus) Dispatch(evt Event) {
	b.mu.Lock()
	ls := append([]listener(nil), b.listeners[evt.EventName()]...)
	b.mu.Unlock()

	for _, l := range ls {
		l.h(evt)
	}
}

// ListenerCount returns the number of listeners registered for name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[name])
}

// PageRenderEvent announces that a page started drawing.
type PageRenderEvent struct {
	PageNumber int
}

// EventName implements Event.
func (PageRenderEvent) EventName() string { return PageRender }

// PageRenderedEvent announces that visible page content changed: a paint
// finished (possibly with Error set) or a display transform was applied
// without repainting (CSSTransform).
type PageRenderedEvent struct {
	PageNumber   int
	CSSTransform bool
	Timestamp    time.Time
	Error        error
}

// EventName implements Event.
func (PageRenderedEvent) EventName() string { return PageRendered }

// PageRenderCancelledEvent announces that an in-flight paint was abandoned.
type PageRenderCancelledEvent struct {
	PageNumber int
}

// EventName implements Event.
func (PageRenderCancelledEvent) EventName() string { return PageRenderCancelled }

// TextLayerRenderedEvent announces a completed text layer.
type TextLayerRenderedEvent struct {
	PageNumber  int
	NumTextDivs int
}

// EventName implements Event.
func (TextLayerRenderedEvent) EventName() string { return TextLayerRendered }

// AnnotationLayerRenderedEvent announces a built or updated annotation layer.
type AnnotationLayerRenderedEvent struct {
	PageNumber int
	Error      error
}

// EventName implements Event.
func (AnnotationLayerRenderedEvent) EventName() string { return AnnotationLayerRendered }

// XFALayerRenderedEvent announces a built or updated XFA layer.
type XFALayerRenderedEvent struct {
	PageNumber int
	Error      error
}

// EventName implements Event.
func (XFALayerRenderedEvent) EventName() string { return XFALayerRendered }

// UpdateTextLayerMatchesEvent is published by the match finder when the
// matches of a page changed. PageIndex is -1 when every page is affected.
type UpdateTextLayerMatchesEvent struct {
	PageIndex int
}

// EventName implements Event.
func (UpdateTextLayerMatchesEvent) EventName() string { return UpdateTextLayerMatches }
