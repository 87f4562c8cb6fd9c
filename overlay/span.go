// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"slices"
	"unicode/utf8"
)

// Span marks the rune range [Start, End) of a node's text with classes.
type Span struct {
	Start, End int
	Classes    []string
}

// Equal reports whether s and o cover the same range with the same classes.
func (s Span) Equal(o Span) bool {
	return s.Start == o.Start && s.End == o.End && slices.Equal(s.Classes, o.Classes)
}

// SpansEqual reports whether two span lists are identical, order included.
func SpansEqual(a, b []Span) bool {
	return slices.EqualFunc(a, b, Span.Equal)
}

// Highlights returns the node's highlight spans in application order.
func (n *Node) Highlights() []Span { return n.highlights }

// SetHighlights replaces the node's highlight spans. Passing nil removes
// every span. Spans are kept in the given order; later spans take visual
// precedence where they overlap earlier ones.
func (n *Node) SetHighlights(spans []Span) {
	if len(spans) == 0 {
		n.highlights = nil
	} else {
		n.highlights = slices.Clone(spans)
	}
	n.touch()
}

// Segment is a maximal run of a node's text rendered with the same classes.
// Classes is nil for plain text.
type Segment struct {
	Text    string
	Start   int
	End     int
	Classes []string
}

// Segments splits the node's text at highlight boundaries. Where spans
// overlap, the span applied last wins.
func (n *Node) Segments() []Segment {
	runes := []rune(n.text)
	if len(runes) == 0 {
		return nil
	}
	owner := make([]int, len(runes))
	for i := range owner {
		owner[i] = -1
	}
	for si, s := range n.highlights {
		start := max(s.Start, 0)
		end := min(s.End, len(runes))
		for i := start; i < end; i++ {
			owner[i] = si
		}
	}

	var out []Segment
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && owner[i] == owner[start] {
			continue
		}
		seg := Segment{Text: string(runes[start:i]), Start: start, End: i}
		if o := owner[start]; o >= 0 {
			seg.Classes = n.highlights[o].Classes
		}
		out = append(out, seg)
		start = i
	}
	return out
}

// RuneCount returns the number of runes in the node's own text.
func (n *Node) RuneCount() int { return utf8.RuneCountInString(n.text) }
