// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package eventbus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDispatchByName(t *testing.T) {
	b := New()
	var got []Event
	b.On(PageRendered, func(e Event) { got = append(got, e) })
	b.On(TextLayerRendered, func(e Event) { t.Errorf("unexpected delivery of %T", e) })

	b.Dispatch(PageRenderedEvent{PageNumber: 3})

	want := []Event{PageRenderedEvent{PageNumber: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestOffRemovesOnlyThatListener(t *testing.T) {
	b := New()
	var a, c int
	offA := b.On(PageRender, func(Event) { a++ })
	b.On(PageRender, func(Event) { c++ })

	b.Dispatch(PageRenderEvent{})
	offA()
	offA()
	b.Dispatch(PageRenderEvent{})

	if a != 1 || c != 2 {
		t.Errorf("a=%d c=%d, want 1 and 2", a, c)
	}
	if n := b.ListenerCount(PageRender); n != 1 {
		t.Errorf("ListenerCount() = %d, want 1", n)
	}
}

func TestListenerMayUnsubscribeDuringDispatch(t *testing.T) {
	b := New()
	calls := 0
	var off func()
	off = b.On(UpdateTextLayerMatches, func(Event) {
		calls++
		off()
	})
	b.Dispatch(UpdateTextLayerMatchesEvent{PageIndex: -1})
	b.Dispatch(UpdateTextLayerMatchesEvent{PageIndex: -1})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := b.ListenerCount(UpdateTextLayerMatches); n != 0 {
		t.Errorf("ListenerCount() = %d, want 0", n)
	}
}

func TestEventNames(t *testing.T) {
	tests := []struct {
		evt  Event
		want string
	}{
		{PageRenderEvent{}, "pagerender"},
		{PageRenderedEvent{}, "pagerendered"},
		{PageRenderCancelledEvent{}, "pagerendercancelled"},
		{TextLayerRenderedEvent{}, "textlayerrendered"},
		{AnnotationLayerRenderedEvent{}, "annotationlayerrendered"},
		{XFALayerRenderedEvent{}, "xfalayerrendered"},
		{UpdateTextLayerMatchesEvent{}, "updatetextlayermatches"},
	}
	for _, tt := range tests {
		if got := tt.evt.EventName(); got != tt.want {
			t.Errorf("%T.EventName() = %q, want %q", tt.evt, got, tt.want)
		}
	}
}
