// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pageview renders a single document page and keeps its overlays in
// step with it.
//
// # Overview
//
// A PageView owns one page: its viewport, at most one in-flight PaintTask,
// and a layers.Manager holding the text, annotation, XFA and structure-tree
// overlays. It moves through the states
//
//	INITIAL -> RUNNING -> FINISHED
//	              |  ^
//	              v  |
//	             PAUSED
//
// Reset returns any state to INITIAL and Destroy ends the view.
//
// # Quick Start
//
//	loop := runloop.New()
//	bus := eventbus.New()
//	v := pageview.New(1, pageview.WithLoop(loop), pageview.WithEventBus(bus))
//	if err := v.SetPdfPage(page); err != nil {
//	    return err
//	}
//	task, err := v.Draw()
//	if err != nil {
//	    return err
//	}
//	loop.RunUntilIdle()
//	<-task.Done()
//
// # Concurrency
//
// Every PageView method must be called on the goroutine that drives its
// run loop. Page rendering and data fetching run on their own goroutines
// and hand their results back to the loop; each continuation checks a
// generation token and drops results that belong to an abandoned render.
//
// # Surfaces
//
// The renderer name selects the surface variant at construction: "canvas"
// rasterises into a gg.Context and consults the rendering queue between
// chunks of work, which may pause the render; "svg" records vector commands
// and only checks for cancellation.
package pageview
