// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"strings"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/overlay"
	"github.com/gogpu/pageview/viewport"
)

// xfaLayer mirrors an XFA form tree. The root carries the unflipped
// viewport transform; XFA coordinates are top-down.
type xfaLayer struct {
	root     *overlay.Node
	textDivs []*overlay.Node
}

func newXFALayer() *xfaLayer {
	return &xfaLayer{root: overlay.New("div", ClassXFALayer)}
}

func (l *xfaLayer) render(form *document.XFANode, vp *viewport.Viewport) error {
	l.root.RemoveChildren()
	l.textDivs = l.textDivs[:0]
	l.root.Append(l.build(form))
	return l.update(vp)
}

func (l *xfaLayer) build(x *document.XFANode) *overlay.Node {
	if x.IsText() {
		n := overlay.NewText("span", x.Value)
		if strings.TrimSpace(x.Value) != "" {
			l.textDivs = append(l.textDivs, n)
		}
		return n
	}
	n := overlay.New(x.Name, "xfa"+x.Name)
	for k, v := range x.Attributes {
		n.SetAttr(k, v)
	}
	for _, c := range x.Children {
		n.Append(l.build(c))
	}
	return n
}

func (l *xfaLayer) update(vp *viewport.Viewport) error {
	dontFlip := true
	flat, err := vp.Clone(viewport.CloneParams{DontFlip: &dontFlip})
	if err != nil {
		return err
	}
	l.root.Transform = flat.Transform()
	l.root.SetHidden(false)
	return nil
}
