// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package highlight projects search matches onto the fragments of a text
// layer.
//
// Match offsets are rune offsets into the concatenation of the fragment
// strings. A match spanning several fragments is split at fragment
// boundaries into begin, middle and end spans. Each pass is diffed against
// the spans applied by the previous pass and only fragments whose spans
// changed are touched.
package highlight

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/overlay"
)

// Span classes.
const (
	ClassHighlight = "highlight"
	ClassBegin     = "begin"
	ClassMiddle    = "middle"
	ClassEnd       = "end"
	ClassSelected  = "selected"
)

var (
	// ErrMappingMismatch is returned when fragments and strings differ in
	// number.
	ErrMappingMismatch = errors.New("highlight: text mapping length mismatch")

	// ErrNoTextMapping is returned by Enable before a mapping is bound.
	ErrNoTextMapping = errors.New("highlight: no text mapping")
)

// Match is one search hit on a page.
type Match struct {
	Begin  int
	Length int

	// Class is an optional colour class added to the match's spans.
	Class string
}

// MatchFinder is the search controller highlights are read from.
type MatchFinder interface {
	// HighlightMatches reports whether matches are shown at all.
	HighlightMatches() bool

	// HighlightAll reports whether every match is shown or only the
	// selected one.
	HighlightAll() bool

	// Selected returns the page and match index of the selected match, or
	// -1, -1.
	Selected() (pageIndex, matchIndex int)

	// PageMatches returns the matches of a page.
	PageMatches(pageIndex int) []Match
}

// Options configures a Highlighter.
type Options struct {
	Finder    MatchFinder
	Bus       *eventbus.Bus
	PageIndex int // 0-based
	Logger    *slog.Logger
}

// position is a fragment index and a rune offset inside that fragment.
type position struct {
	div    int
	offset int
}

type converted struct {
	begin, end position
	class      string
}

// Highlighter keeps match spans on one page's text fragments.
//
// A Highlighter lives on the run loop; none of its methods are safe for
// concurrent use.
type Highlighter struct {
	finder    MatchFinder
	pageIndex int
	log       *slog.Logger
	off       func()

	divs    []*overlay.Node
	texts   []string
	mapped  bool
	enabled bool

	matches []Match
	applied map[int][]overlay.Span
}

// New creates a disabled highlighter and subscribes it to match updates.
func New(opts Options) *Highlighter {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &Highlighter{
		finder:    opts.Finder,
		pageIndex: opts.PageIndex,
		log:       log,
		applied:   make(map[int][]overlay.Span),
	}
	if opts.Bus != nil {
		h.off = opts.Bus.On(eventbus.UpdateTextLayerMatches, h.onUpdate)
	}
	return h
}

// Close unsubscribes from match updates. Applied spans are left in place.
func (h *Highlighter) Close() {
	if h.off != nil {
		h.off()
		h.off = nil
	}
}

// SetTextMapping binds the text run index. Spans applied to a previous
// mapping are forgotten, not removed; those fragments belong to a discarded
// layer.
func (h *Highlighter) SetTextMapping(divs []*overlay.Node, texts []string) error {
	if len(divs) != len(texts) {
		return fmt.Errorf("%w: %d fragments, %d strings", ErrMappingMismatch, len(divs), len(texts))
	}
	h.divs, h.texts = divs, texts
	h.mapped = true
	clear(h.applied)
	if h.enabled {
		h.render()
	}
	return nil
}

// Enable starts applying matches.
func (h *Highlighter) Enable() error {
	if !h.mapped {
		return ErrNoTextMapping
	}
	h.enabled = true
	h.refresh()
	return nil
}

// Disable removes applied spans and stops applying matches. Updates are
// still recorded.
func (h *Highlighter) Disable() {
	if !h.enabled {
		return
	}
	h.enabled = false
	h.apply(nil)
}

// Enabled reports whether matches are being applied.
func (h *Highlighter) Enabled() bool { return h.enabled }

// Matches returns the most recently recorded matches.
func (h *Highlighter) Matches() []Match { return h.matches }

func (h *Highlighter) onUpdate(e eventbus.Event) {
	evt, ok := e.(eventbus.UpdateTextLayerMatchesEvent)
	if !ok || (evt.PageIndex != -1 && evt.PageIndex != h.pageIndex) {
		return
	}
	h.refresh()
}

// refresh replaces the recorded matches and renders them when enabled.
func (h *Highlighter) refresh() {
	h.matches = nil
	if h.finder != nil {
		h.matches = h.finder.PageMatches(h.pageIndex)
	}
	if h.enabled {
		h.render()
	}
}

func (h *Highlighter) render() {
	if h.finder == nil || !h.finder.HighlightMatches() {
		h.apply(nil)
		return
	}
	h.apply(h.project(h.convert(h.matches)))
}

// convert maps match offsets to fragment positions. Matches that start
// past the end of the text are dropped; matches that end past it are
// clamped.
func (h *Highlighter) convert(matches []Match) []converted {
	if len(h.texts) == 0 {
		return nil
	}
	// prefix[i] is the offset of the first rune of texts[i].
	prefix := make([]int, len(h.texts)+1)
	for i, s := range h.texts {
		prefix[i+1] = prefix[i] + utf8.RuneCountInString(s)
	}
	total := prefix[len(h.texts)]

	out := make([]converted, 0, len(matches))
	for i, m := range matches {
		if m.Length <= 0 {
			continue
		}
		if m.Begin < 0 || m.Begin >= total {
			h.log.Warn("highlight: match out of range",
				"page", h.pageIndex+1, "match", i, "begin", m.Begin, "total", total)
			continue
		}
		end := min(m.Begin+m.Length, total)

		// First fragment whose range contains begin.
		bi := sort.Search(len(h.texts), func(j int) bool { return prefix[j+1] > m.Begin })
		// First fragment whose range reaches end.
		ei := sort.Search(len(h.texts), func(j int) bool { return prefix[j+1] >= end })
		out = append(out, converted{
			begin: position{div: bi, offset: m.Begin - prefix[bi]},
			end:   position{div: ei, offset: end - prefix[ei]},
			class: m.Class,
		})
	}
	return out
}

// project turns converted matches into per-fragment spans, honouring the
// finder's selection and highlight-all settings.
func (h *Highlighter) project(matches []converted) map[int][]overlay.Span {
	selPage, selMatch := h.finder.Selected()
	selectedPage := selPage == h.pageIndex

	i0, i1 := 0, len(matches)
	if !h.finder.HighlightAll() {
		if !selectedPage || selMatch < 0 || selMatch >= len(matches) {
			return nil
		}
		i0, i1 = selMatch, selMatch+1
	}

	spans := make(map[int][]overlay.Span)
	add := func(div, start, end int, classes ...string) {
		if start >= end {
			return
		}
		spans[div] = append(spans[div], overlay.Span{Start: start, End: end, Classes: classes})
	}
	for i := i0; i < i1; i++ {
		m := matches[i]
		extra := make([]string, 0, 2)
		if selectedPage && i == selMatch {
			extra = append(extra, ClassSelected)
		}
		if m.class != "" {
			extra = append(extra, m.class)
		}
		classes := func(pos string) []string {
			c := []string{ClassHighlight}
			if pos != "" {
				c = append(c, pos)
			}
			return append(c, extra...)
		}

		if m.begin.div == m.end.div {
			add(m.begin.div, m.begin.offset, m.end.offset, classes("")...)
			continue
		}
		add(m.begin.div, m.begin.offset, utf8.RuneCountInString(h.texts[m.begin.div]), classes(ClassBegin)...)
		for d := m.begin.div + 1; d < m.end.div; d++ {
			add(d, 0, utf8.RuneCountInString(h.texts[d]), classes(ClassMiddle)...)
		}
		add(m.end.div, 0, m.end.offset, classes(ClassEnd)...)
	}
	return spans
}

// apply mutates only fragments whose span list changed.
func (h *Highlighter) apply(next map[int][]overlay.Span) {
	for div, prev := range h.applied {
		if _, ok := next[div]; !ok && div < len(h.divs) && len(prev) > 0 {
			h.divs[div].SetHighlights(nil)
		}
	}
	for div, spans := range next {
		if div >= len(h.divs) {
			continue
		}
		if overlay.SpansEqual(h.applied[div], spans) {
			continue
		}
		h.divs[div].SetHighlights(spans)
	}
	h.applied = next
	if h.applied == nil {
		h.applied = make(map[int][]overlay.Span)
	}
}
