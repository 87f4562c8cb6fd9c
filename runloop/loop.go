// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package runloop provides the single cooperative run-loop that all page
// rendering state lives on.
//
// Work is never executed in parallel on the loop. Blocking operations run
// on their own goroutine via Go and hand their continuation back to the
// loop, which executes continuations one at a time in FIFO order. A
// continuation must check its owner's liveness before touching state: the
// owner may have been reset or destroyed while the operation was in flight.
//
// The loop can be driven in two ways. Run blocks and executes work until its
// context is cancelled, which suits a long-running viewer. RunPending and
// RunUntilIdle execute work on the calling goroutine, which makes tests
// deterministic.
package runloop

import (
	"context"
	"sync"
	"time"
)

// Loop is a FIFO executor for continuations.
//
// Post, Go and AfterFunc are safe for concurrent use. The functions they
// schedule always run on whichever goroutine drives the loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	pending int // in-flight Go and AfterFunc operations
	wake    chan struct{}
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run on the loop.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on a new goroutine and then schedules then on the loop.
// then may be nil. The loop is not idle until then has been queued.
func (l *Loop) Go(work func(), then func()) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	go func() {
		work()
		l.mu.Lock()
		if then != nil {
			l.queue = append(l.queue, then)
		}
		l.pending--
		l.mu.Unlock()
		l.signal()
	}()
}

// AfterFunc schedules fn on the loop once d has elapsed. The returned stop
// function cancels the timer and reports whether it did so before fn was
// queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (stop func() bool) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	var once sync.Once
	release := func(queue bool) {
		once.Do(func() {
			l.mu.Lock()
			if queue {
				l.queue = append(l.queue, fn)
			}
			l.pending--
			l.mu.Unlock()
			l.signal()
		})
	}

	t := time.AfterFunc(d, func() { release(true) })
	return func() bool {
		if t.Stop() {
			release(false)
			return true
		}
		return false
	}
}

// RunPending executes queued functions on the calling goroutine until the
// queue is empty, including functions queued while running. It does not
// wait for in-flight operations and returns the number of functions run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn := l.pop()
		if fn == nil {
			return n
		}
		fn()
		n++
	}
}

// RunUntilIdle executes queued functions on the calling goroutine and waits
// for in-flight operations until nothing is queued or pending.
func (l *Loop) RunUntilIdle() {
	for {
		l.RunPending()
		if l.idle() {
			return
		}
		<-l.wake
	}
}

// Run executes queued functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Idle reports whether the loop has neither queued nor pending work.
func (l *Loop) Idle() bool {
	return l.idle()
}

func (l *Loop) idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) == 0 && l.pending == 0
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
