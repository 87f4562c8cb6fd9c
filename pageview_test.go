// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/layers"
	"github.com/gogpu/pageview/runloop"
	"github.com/gogpu/pageview/surface"
)

var square = r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 150, Y: 150})

type fixedMeasurer float64

func (m fixedMeasurer) Measure(string, float64) float64 { return float64(m) }

// fakeQueue is only touched on the run loop.
type fakeQueue struct {
	lowPriority bool
	started     int
	finished    int
	cancelled   int
}

func (q *fakeQueue) IsHighestPriority(*PageView) bool { return !q.lowPriority }
func (q *fakeQueue) RenderStarted(*PageView)          { q.started++ }
func (q *fakeQueue) RenderFinished(*PageView)         { q.finished++ }
func (q *fakeQueue) RenderCancelled(*PageView)        { q.cancelled++ }

type events struct {
	names    []string
	rendered []eventbus.PageRenderedEvent
}

func (e *events) reset() { e.names, e.rendered = nil, nil }

type harness struct {
	loop   *runloop.Loop
	bus    *eventbus.Bus
	queue  *fakeQueue
	events *events
	page   *document.StaticPage
	view   *PageView
}

func newHarness(t *testing.T, page *document.StaticPage, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		loop:   runloop.New(),
		bus:    eventbus.New(),
		queue:  &fakeQueue{},
		events: &events{},
		page:   page,
	}
	for _, name := range []string{
		eventbus.PageRender,
		eventbus.PageRendered,
		eventbus.PageRenderCancelled,
		eventbus.TextLayerRendered,
	} {
		h.bus.On(name, func(e eventbus.Event) {
			h.events.names = append(h.events.names, e.EventName())
			if r, ok := e.(eventbus.PageRenderedEvent); ok {
				h.events.rendered = append(h.events.rendered, r)
			}
		})
	}
	base := []Option{
		WithLoop(h.loop),
		WithEventBus(h.bus),
		WithRenderingQueue(h.queue),
		WithMeasurer(fixedMeasurer(10)),
	}
	v, err := New(page.Number, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v.SetPdfPage(page); err != nil {
		t.Fatalf("SetPdfPage() error = %v", err)
	}
	h.view = v
	return h
}

func textPage() *document.StaticPage {
	return &document.StaticPage{
		Number: 1,
		Box:    square,
		Chunks: []*document.TextContent{document.TextLines(square, 12, "Hello", "World")},
	}
}

// waitFor drives the loop until cond holds. It never blocks on in-flight
// work, so it is safe while a render is paused.
func (h *harness) waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s (state %s)", what, h.view.State())
		}
		if h.loop.RunPending() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

func (h *harness) draw(t *testing.T) *PaintTask {
	t.Helper()
	task, err := h.view.Draw()
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	return task
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDrawFinishes(t *testing.T) {
	page := textPage()
	page.Structure = &document.StructNode{Role: "Document", Children: []*document.StructNode{{Role: "P", ContentID: "p0"}}}
	h := newHarness(t, page)

	task := h.draw(t)
	if got := h.view.State(); got != StateRunning {
		t.Fatalf("state after Draw = %s, want RUNNING", got)
	}
	h.loop.RunUntilIdle()

	if got := h.view.State(); got != StateFinished {
		t.Fatalf("state = %s, want FINISHED", got)
	}
	select {
	case <-task.Done():
	default:
		t.Fatal("task not resolved")
	}
	if err := task.Err(); err != nil {
		t.Fatalf("task.Err() = %v", err)
	}
	want := []string{eventbus.PageRender, eventbus.PageRendered, eventbus.TextLayerRendered}
	if diff := cmp.Diff(want, h.events.names); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if h.events.rendered[0].Error != nil || h.events.rendered[0].CSSTransform {
		t.Errorf("pagerendered = %+v", h.events.rendered[0])
	}
	if h.queue.started != 1 || h.queue.finished != 1 {
		t.Errorf("queue started/finished = %d/%d, want 1/1", h.queue.started, h.queue.finished)
	}

	target := h.view.Target()
	if target == nil || target.Kind() != surface.KindCanvas {
		t.Fatalf("Target() = %v, want a canvas", target)
	}
	if target.Width() != 200 || target.Height() != 200 {
		t.Errorf("target size = %dx%d, want 200x200", target.Width(), target.Height())
	}
	if h.view.Layers().Layer(layers.SlotText) == nil {
		t.Error("text layer not built")
	}
	if h.view.Layers().Layer(layers.SlotStructTree) == nil {
		t.Error("structure tree not built over a canvas")
	}
	if n := len(h.view.Div().FindByClass(ClassLoading)); n != 0 {
		t.Errorf("%d loading nodes after render", n)
	}
	if divs := h.view.Layers().TextLayer().TextDivs(); len(divs) != 2 {
		t.Errorf("text divs = %d, want 2", len(divs))
	}
}

func TestDrawReturnsExistingTask(t *testing.T) {
	h := newHarness(t, textPage())

	first := h.draw(t)
	second := h.draw(t)
	if first != second {
		t.Fatal("second Draw started another render")
	}
	h.loop.RunUntilIdle()
	if third := h.draw(t); third != first {
		t.Error("Draw after finish returned a new task")
	}
	h.loop.RunUntilIdle()
	if n := h.page.Renders(); n != 1 {
		t.Errorf("page rendered %d times, want 1", n)
	}
}

func TestUpdateWhileRunningCancels(t *testing.T) {
	gate := make(chan struct{})
	page := textPage()
	page.Gate = gate
	h := newHarness(t, page)

	task := h.draw(t)
	if err := h.view.Update(UpdateParams{Scale: 2}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("state after Update = %s, want INITIAL", got)
	}
	if !task.Cancelled() || !errors.Is(task.Err(), ErrRenderingCancelled) {
		t.Fatalf("old task: cancelled=%v err=%v", task.Cancelled(), task.Err())
	}
	if h.queue.cancelled != 1 {
		t.Errorf("queue cancelled = %d, want 1", h.queue.cancelled)
	}

	close(gate)
	h.loop.RunUntilIdle()
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("late completion moved state to %s", got)
	}
	if h.view.Target() != nil {
		t.Error("late completion installed its surface")
	}
	if len(h.events.rendered) != 0 {
		t.Errorf("late completion dispatched pagerendered: %+v", h.events.rendered)
	}

	next := h.draw(t)
	if next == task || next.ID() == task.ID() {
		t.Fatal("Draw reused the cancelled task")
	}
	h.loop.RunUntilIdle()
	if err := next.Err(); err != nil {
		t.Fatalf("next.Err() = %v", err)
	}
	if w := h.view.Target().Width(); w != 400 {
		t.Errorf("target width at scale 2 = %d, want 400", w)
	}
	want := []string{
		eventbus.PageRender,
		eventbus.PageRenderCancelled,
		eventbus.PageRender,
		eventbus.PageRendered,
		eventbus.TextLayerRendered,
	}
	if diff := cmp.Diff(want, h.events.names); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t, textPage())

	h.view.Reset(ResetParams{})
	h.view.Reset(ResetParams{})
	h.loop.RunUntilIdle()
	if len(h.events.names) != 0 {
		t.Fatalf("reset of an idle view dispatched %v", h.events.names)
	}
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("state = %s, want INITIAL", got)
	}

	h.draw(t)
	h.loop.RunUntilIdle()
	h.events.reset()

	h.view.Reset(ResetParams{})
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("state = %s, want INITIAL", got)
	}
	if h.view.Target() != nil || h.view.Layers().Layer(layers.SlotText) != nil {
		t.Error("reset kept the surface or the text layer")
	}
	h.view.Reset(ResetParams{})
	h.loop.RunUntilIdle()
	if len(h.events.names) != 0 {
		t.Errorf("reset dispatched %v", h.events.names)
	}
	if n := len(h.view.Div().FindByClass(ClassLoading)); n != 1 {
		t.Errorf("loading nodes = %d, want 1", n)
	}
}

func TestRenderFailure(t *testing.T) {
	boom := errors.New("boom")
	page := textPage()
	page.RenderErr = boom
	h := newHarness(t, page)

	task := h.draw(t)
	h.loop.RunUntilIdle()

	if got := h.view.State(); got != StateFinished {
		t.Fatalf("state = %s, want FINISHED", got)
	}
	var rerr *RenderError
	if !errors.As(h.view.RenderError(), &rerr) || !errors.Is(rerr, boom) || rerr.PageNumber != 1 {
		t.Fatalf("RenderError() = %v", h.view.RenderError())
	}
	if !errors.Is(task.Err(), boom) {
		t.Errorf("task.Err() = %v, want boom", task.Err())
	}
	if len(h.events.rendered) != 1 || !errors.Is(h.events.rendered[0].Error, boom) {
		t.Errorf("pagerendered = %+v, want one event carrying boom", h.events.rendered)
	}
	for _, s := range []layers.Slot{layers.SlotText, layers.SlotAnnotation, layers.SlotXFA, layers.SlotStructTree} {
		if h.view.Layers().Layer(s) != nil {
			t.Errorf("%s layer built after failure", s)
		}
	}
	if n := len(h.view.Div().FindByClass(ClassRenderingError)); n != 1 {
		t.Errorf("error placeholders = %d, want 1", n)
	}
	if h.queue.finished != 1 {
		t.Errorf("queue finished = %d, want 1", h.queue.finished)
	}

	// Not retried automatically.
	if again := h.draw(t); again != task {
		t.Error("Draw after failure started a new render")
	}
}

func TestOptionalContentFailure(t *testing.T) {
	boom := errors.New("no config")
	h := newHarness(t, textPage(), WithOptionalContent(func(context.Context) (*document.OptionalContentConfig, error) {
		return nil, boom
	}))

	h.draw(t)
	h.loop.RunUntilIdle()
	if !errors.Is(h.view.RenderError(), boom) {
		t.Fatalf("RenderError() = %v, want %v", h.view.RenderError(), boom)
	}
	if h.page.Renders() != 0 {
		t.Error("page rendered without optional content")
	}
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, textPage())
	h.queue.lowPriority = true

	task := h.draw(t)
	h.waitFor(t, "pause", func() bool { return h.view.State() == StatePaused })
	if task.Resolved() {
		t.Fatal("paused task resolved")
	}

	h.queue.lowPriority = false
	if !h.view.Resume() {
		t.Fatal("Resume() = false while paused")
	}
	if h.view.Resume() {
		t.Error("second Resume() = true")
	}
	h.loop.RunUntilIdle()
	if got := h.view.State(); got != StateFinished {
		t.Fatalf("state = %s, want FINISHED", got)
	}
	if err := task.Err(); err != nil {
		t.Fatalf("task.Err() = %v", err)
	}
}

func TestCancelWhilePaused(t *testing.T) {
	h := newHarness(t, textPage())
	h.queue.lowPriority = true

	task := h.draw(t)
	h.waitFor(t, "pause", func() bool { return h.view.State() == StatePaused })

	h.view.CancelRendering(CancelParams{})
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("state = %s, want INITIAL", got)
	}
	if h.view.Resume() {
		t.Error("Resume() after cancel = true")
	}
	h.loop.RunUntilIdle()
	if !errors.Is(task.Err(), ErrRenderingCancelled) {
		t.Errorf("task.Err() = %v, want ErrRenderingCancelled", task.Err())
	}
	if h.view.RenderError() != nil {
		t.Errorf("cancellation recorded as error: %v", h.view.RenderError())
	}
}

func TestCancelRenderingWithoutTask(t *testing.T) {
	h := newHarness(t, textPage())
	h.view.CancelRendering(CancelParams{})

	h.draw(t)
	h.loop.RunUntilIdle()
	h.events.reset()

	h.view.CancelRendering(CancelParams{})
	if got := h.view.State(); got != StateFinished {
		t.Errorf("state = %s, want FINISHED", got)
	}
	if len(h.events.names) != 0 || h.queue.cancelled != 0 {
		t.Errorf("cancel of a finished render notified: %v, queue %d", h.events.names, h.queue.cancelled)
	}
	if h.view.Layers().Layer(layers.SlotText) == nil {
		t.Error("cancel of a finished render removed the text layer")
	}
}

func TestUpdateOnlyCSSZoom(t *testing.T) {
	h := newHarness(t, textPage(), WithOnlyCSSZoom(true))
	h.draw(t)
	h.loop.RunUntilIdle()
	target := h.view.Target()
	h.events.reset()

	if err := h.view.Update(UpdateParams{Scale: 2}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := h.view.State(); got != StateFinished {
		t.Fatalf("state = %s, want FINISHED", got)
	}
	if h.view.Target() != target {
		t.Error("CSS zoom replaced the surface")
	}
	m := h.view.DisplayTransform()
	if !near(m.A, 2) || !near(m.E, 2) || !near(m.C, 0) || !near(m.F, 0) {
		t.Errorf("DisplayTransform() = %+v, want a 2x scale", m)
	}
	if !near(h.view.Width(), 400) {
		t.Errorf("Width() = %v, want 400", h.view.Width())
	}
	if len(h.events.rendered) != 1 || !h.events.rendered[0].CSSTransform {
		t.Errorf("pagerendered = %+v, want one CSS transform event", h.events.rendered)
	}
	root := h.view.Layers().Layer(layers.SlotText)
	if root == nil || !near(root.Transform.A, 2) {
		t.Errorf("text layer not moved to the new viewport")
	}

	// Optional content changes always repaint.
	if err := h.view.Update(UpdateParams{OptionalContent: func(context.Context) (*document.OptionalContentConfig, error) {
		return &document.OptionalContentConfig{}, nil
	}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := h.view.State(); got != StateInitial {
		t.Errorf("state after optional content update = %s, want INITIAL", got)
	}
}

func TestUpdateSameViewport(t *testing.T) {
	h := newHarness(t, textPage())
	h.draw(t)
	h.loop.RunUntilIdle()
	h.events.reset()

	rot := 0
	if err := h.view.Update(UpdateParams{Scale: 1, Rotation: &rot}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := h.view.State(); got != StateFinished || len(h.events.names) != 0 {
		t.Errorf("no-op update: state %s, events %v", got, h.events.names)
	}
	if err := h.view.Update(UpdateParams{Scale: -1}); err == nil {
		t.Error("Update with negative scale succeeded")
	}
}

func TestUpdateKeepsZoomLayer(t *testing.T) {
	h := newHarness(t, textPage())
	h.draw(t)
	h.loop.RunUntilIdle()

	if _, err := h.view.ZoomPreview(); !errors.Is(err, ErrNoZoomLayer) {
		t.Fatalf("ZoomPreview() before zoom error = %v", err)
	}
	if err := h.view.Update(UpdateParams{Scale: 1.5}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := h.view.State(); got != StateInitial {
		t.Fatalf("state = %s, want INITIAL", got)
	}
	img, err := h.view.ZoomPreview()
	if err != nil {
		t.Fatalf("ZoomPreview() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 300 {
		t.Errorf("preview size = %v, want 300x300", b)
	}

	h.draw(t)
	h.loop.RunUntilIdle()
	if _, err := h.view.ZoomPreview(); !errors.Is(err, ErrNoZoomLayer) {
		t.Errorf("zoom layer kept after the new render: %v", err)
	}
}

func TestRestrictedScaling(t *testing.T) {
	h := newHarness(t, textPage(), WithOutputScale(2), WithMaxCanvasPixels(10000))
	h.draw(t)
	h.loop.RunUntilIdle()

	if !h.view.HasRestrictedScaling() {
		t.Fatal("HasRestrictedScaling() = false")
	}
	if w := h.view.Target().Width(); w != 100 {
		t.Errorf("target width = %d, want 100", w)
	}

	target := h.view.Target()
	if err := h.view.Update(UpdateParams{Scale: 1.5}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if h.view.State() != StateFinished || h.view.Target() != target {
		t.Errorf("restricted view repainted on zoom: state %s", h.view.State())
	}
	if m := h.view.DisplayTransform(); !near(m.A, 1.5) {
		t.Errorf("DisplayTransform().A = %v, want 1.5", m.A)
	}
}

func TestVectorRenderer(t *testing.T) {
	page := textPage()
	page.Structure = &document.StructNode{Role: "Document"}
	h := newHarness(t, page, WithRenderer(surface.RendererSVG))
	h.queue.lowPriority = true

	task := h.draw(t)
	h.loop.RunUntilIdle()
	if err := task.Err(); err != nil {
		t.Fatalf("task.Err() = %v", err)
	}
	if got := h.view.Target().Kind(); got != surface.KindVector {
		t.Errorf("target kind = %v, want vector", got)
	}
	if h.view.Layers().Layer(layers.SlotText) == nil {
		t.Error("text layer not built")
	}
	if h.view.Layers().Layer(layers.SlotStructTree) != nil {
		t.Error("structure tree built over a vector surface")
	}
}

func TestSetPdfPageWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	page := textPage()
	page.Gate = gate
	h := newHarness(t, page)
	h.draw(t)

	if err := h.view.SetPdfPage(textPage()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetPdfPage() while running error = %v, want ErrInvalidState", err)
	}
	close(gate)
	h.loop.RunUntilIdle()
	if err := h.view.SetPdfPage(textPage()); err != nil {
		t.Errorf("SetPdfPage() after finish error = %v", err)
	}
	if got := h.view.State(); got != StateInitial {
		t.Errorf("state = %s, want INITIAL", got)
	}
}

func TestDrawWithoutPage(t *testing.T) {
	v, err := New(1, WithMeasurer(fixedMeasurer(10)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Draw(); !errors.Is(err, ErrNoPage) {
		t.Errorf("Draw() error = %v, want ErrNoPage", err)
	}
	if v.Width() != 0 || v.Height() != 0 {
		t.Errorf("size without page = %vx%v", v.Width(), v.Height())
	}
}

func TestDestroy(t *testing.T) {
	gate := make(chan struct{})
	page := textPage()
	page.Gate = gate
	h := newHarness(t, page)
	task := h.draw(t)

	h.view.Destroy()
	h.view.Destroy()
	if got := h.view.State(); got != StateDestroyed {
		t.Fatalf("state = %s, want DESTROYED", got)
	}
	if !errors.Is(task.Err(), ErrRenderingCancelled) {
		t.Errorf("task.Err() = %v, want ErrRenderingCancelled", task.Err())
	}
	if page.Cleanups() != 1 {
		t.Errorf("page cleanups = %d, want 1", page.Cleanups())
	}
	if n := len(h.view.Div().Children()); n != 0 {
		t.Errorf("%d nodes left after destroy", n)
	}
	if _, err := h.view.Draw(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw() error = %v, want ErrDestroyed", err)
	}
	if err := h.view.Update(UpdateParams{Scale: 2}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Update() error = %v, want ErrDestroyed", err)
	}
	if err := h.view.SetPdfPage(page); !errors.Is(err, ErrDestroyed) {
		t.Errorf("SetPdfPage() error = %v, want ErrDestroyed", err)
	}
	close(gate)
	h.loop.RunUntilIdle()
}

func TestLabelsAndLandmark(t *testing.T) {
	page := textPage()
	page.Number = 3
	h := newHarness(t, page, WithL10n(func(key string, args map[string]string, fallback string) string {
		if key == "page_landmark" {
			return "Seite " + args["page"]
		}
		return DefaultL10n(key, args, fallback)
	}))

	if got, _ := h.view.Div().Attr("aria-label"); got != "Seite 3" {
		t.Errorf("aria-label = %q, want %q", got, "Seite 3")
	}
	h.view.SetPageLabel("iii")
	if got, _ := h.view.Div().Attr("data-page-label"); got != "iii" || h.view.PageLabel() != "iii" {
		t.Errorf("page label = %q", got)
	}
	h.view.SetPageLabel("")
	if _, ok := h.view.Div().Attr("data-page-label"); ok {
		t.Error("empty label kept the attribute")
	}
}

func TestPagePoint(t *testing.T) {
	h := newHarness(t, textPage())
	got := h.view.PagePoint(0, 0)
	if !near(got.X, 0) || !near(got.Y, 150) {
		t.Errorf("PagePoint(0, 0) = %v, want (0, 150)", got)
	}
}

func TestNewUnknownRenderer(t *testing.T) {
	_, err := New(1, WithRenderer("webgl"))
	var nf *surface.RendererNotFoundError
	if !errors.As(err, &nf) || nf.Name != "webgl" {
		t.Errorf("New() error = %v, want RendererNotFoundError", err)
	}
}

func TestRenderingStateString(t *testing.T) {
	tests := map[RenderingState]string{
		StateInitial:       "INITIAL",
		StateRunning:       "RUNNING",
		StatePaused:        "PAUSED",
		StateFinished:      "FINISHED",
		StateDestroyed:     "DESTROYED",
		RenderingState(42): "UNKNOWN",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
