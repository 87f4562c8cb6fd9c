// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

// RenderingState is the state of a PageView.
type RenderingState int

const (
	StateInitial RenderingState = iota
	StateRunning
	StatePaused
	StateFinished
	StateDestroyed
)

// String implements fmt.Stringer.
func (s RenderingState) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateFinished:
		return "FINISHED"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}
