// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package textlayer

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/pageview/internal/cache"
)

// Measurer reports the advance width of a string at a font size.
type Measurer interface {
	Measure(s string, size float64) float64
}

type measureKey struct {
	s    string
	size float64
}

// FontMeasurer measures with a single font and caches the results.
type FontMeasurer struct {
	src   *text.FontSource
	mu    sync.Mutex
	faces map[float64]text.Face
	cache *cache.Cache[measureKey, float64]
}

// NewFontMeasurer parses a TrueType or OpenType font. capacity bounds the
// number of cached measurements.
func NewFontMeasurer(data []byte, capacity int) (*FontMeasurer, error) {
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("textlayer: load font: %w", err)
	}
	return &FontMeasurer{
		src:   src,
		faces: make(map[float64]text.Face),
		cache: cache.New[measureKey, float64](capacity),
	}, nil
}

// Measure implements Measurer.
func (m *FontMeasurer) Measure(s string, size float64) float64 {
	if s == "" || size <= 0 {
		return 0
	}
	return m.cache.GetOrCreate(measureKey{s: s, size: size}, func() float64 {
		return m.face(size).Advance(s)
	})
}

// Stats returns measurement cache statistics.
func (m *FontMeasurer) Stats() cache.Stats { return m.cache.Stats() }

func (m *FontMeasurer) face(size float64) text.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.faces[size]
	if !ok {
		f = m.src.Face(size)
		m.faces[size] = f
	}
	return f
}

var defaultMeasurer = sync.OnceValues(func() (*FontMeasurer, error) {
	return NewFontMeasurer(goregular.TTF, 4096)
})

// DefaultMeasurer measures with Go Regular.
func DefaultMeasurer() (*FontMeasurer, error) {
	return defaultMeasurer()
}

// Direction returns "rtl" or "ltr" from the first strong character of s,
// and "ltr" when s has none.
func Direction(s string) string {
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return "rtl"
		case bidi.L:
			return "ltr"
		}
	}
	return "ltr"
}
