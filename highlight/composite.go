// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package highlight

import (
	"fmt"
	"hash/fnv"
	"image"
	"slices"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/pageview/overlay"
)

// Palette maps span classes to colours.
type Palette struct {
	Highlight colorful.Color
	Selected  colorful.Color

	// Alpha is the opacity highlight boxes are painted with.
	Alpha float64

	classes map[string]colorful.Color
}

// DefaultPalette returns the yellow-and-green scheme.
func DefaultPalette() *Palette {
	return &Palette{
		Highlight: colorful.Hsl(55, 1, 0.5),
		Selected:  colorful.Hsl(120, 1, 0.35),
		Alpha:     0.4,
		classes:   make(map[string]colorful.Color),
	}
}

// SetClass assigns a colour to a custom match class.
func (p *Palette) SetClass(class string, c colorful.Color) {
	if p.classes == nil {
		p.classes = make(map[string]colorful.Color)
	}
	p.classes[class] = c
}

// Color resolves a span's classes. The selected class wins, then a custom
// class, then the plain highlight colour. Custom classes without an
// assigned colour get a stable hue derived from their name.
func (p *Palette) Color(classes []string) gg.RGBA {
	c := p.Highlight
	switch {
	case slices.Contains(classes, ClassSelected):
		c = p.Selected
	default:
		for _, cl := range classes {
			if isStructural(cl) {
				continue
			}
			if pc, ok := p.classes[cl]; ok {
				c = pc
			} else {
				c = hashHue(cl)
			}
			break
		}
	}
	r, g, b := c.Clamped().RGB255()
	return gg.RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: p.Alpha}
}

func isStructural(class string) bool {
	switch class {
	case ClassHighlight, ClassBegin, ClassMiddle, ClassEnd, ClassSelected:
		return true
	}
	return false
}

func hashHue(class string) colorful.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(class))
	return colorful.Hsl(float64(h.Sum32()%360), 0.9, 0.55)
}

// Composite paints the highlighted segments of every fragment under root
// over img. scale maps overlay units to image pixels. Overlapping spans are
// resolved last-write-wins before painting.
func Composite(img image.Image, root *overlay.Node, scale float64, p *Palette) (image.Image, error) {
	if p == nil {
		p = DefaultPalette()
	}
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	dc.Scale(scale, scale)

	var err error
	root.Walk(func(n *overlay.Node) bool {
		if err != nil {
			return false
		}
		if n.Hidden() {
			return false
		}
		if len(n.Highlights()) == 0 {
			return true
		}
		err = paintNode(dc, n, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func paintNode(dc *gg.Context, n *overlay.Node, p *Palette) error {
	runes := n.RuneCount()
	if runes == 0 {
		return nil
	}
	w := n.Bounds.X.Length()
	h := n.Bounds.Y.Length()

	dc.Push()
	defer dc.Pop()
	dc.Translate(n.Bounds.X.Lo, n.Bounds.Y.Lo)
	if n.Angle != 0 {
		dc.Rotate(n.Angle)
	}
	for _, seg := range n.Segments() {
		if seg.Classes == nil {
			continue
		}
		c := p.Color(seg.Classes)
		x0 := w * float64(seg.Start) / float64(runes)
		x1 := w * float64(seg.End) / float64(runes)
		dc.SetRGBA(c.R, c.G, c.B, c.A)
		dc.DrawRectangle(x0, 0, x1-x0, h)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("highlight: paint fragment: %w", err)
		}
	}
	return nil
}
