// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/gogpu/pageview/highlight"
)

// finder matches a query against page text ignoring case and diacritics.
// Offsets are runes into the concatenated text of a page's items.
type finder struct {
	matcher *search.Matcher
	query   string
	all     bool
	pages   map[int][]highlight.Match
}

var _ highlight.MatchFinder = (*finder)(nil)

func newFinder(tag language.Tag, query string, all bool) *finder {
	return &finder{
		matcher: search.New(tag, search.IgnoreCase, search.IgnoreDiacritics),
		query:   query,
		all:     all,
		pages:   make(map[int][]highlight.Match),
	}
}

// setPage indexes the item texts of a page.
func (f *finder) setPage(pageIndex int, texts []string) {
	f.pages[pageIndex] = f.find(strings.Join(texts, ""))
}

func (f *finder) find(text string) []highlight.Match {
	if f.query == "" {
		return nil
	}
	var out []highlight.Match
	for off := 0; off < len(text); {
		i, j := f.matcher.IndexString(text[off:], f.query)
		if i < 0 || j <= i {
			break
		}
		out = append(out, highlight.Match{
			Begin:  utf8.RuneCountInString(text[:off+i]),
			Length: utf8.RuneCountInString(text[off+i : off+j]),
		})
		off += j
	}
	return out
}

func (f *finder) total() int {
	n := 0
	for _, m := range f.pages {
		n += len(m)
	}
	return n
}

func (f *finder) HighlightMatches() bool { return f.query != "" }

func (f *finder) HighlightAll() bool { return f.all }

// Selected is the first match of the first page that has one.
func (f *finder) Selected() (int, int) {
	first := -1
	for p, m := range f.pages {
		if len(m) > 0 && (first < 0 || p < first) {
			first = p
		}
	}
	if first < 0 {
		return -1, -1
	}
	return first, 0
}

func (f *finder) PageMatches(pageIndex int) []highlight.Match { return f.pages[pageIndex] }
