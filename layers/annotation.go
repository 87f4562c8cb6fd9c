// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"strings"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/overlay"
	"github.com/gogpu/pageview/viewport"
)

// annotationLayer holds one node per annotation, positioned in viewport
// units.
type annotationLayer struct {
	root   *overlay.Node
	annots []document.Annotation
	nodes  []*overlay.Node
}

func newAnnotationLayer() *annotationLayer {
	return &annotationLayer{root: overlay.New("div", ClassAnnotationLayer)}
}

// render replaces the layer content.
func (l *annotationLayer) render(annots []document.Annotation, vp *viewport.Viewport, forms bool) {
	l.root.RemoveChildren()
	l.annots = annots
	l.nodes = l.nodes[:0]
	for _, a := range annots {
		n := overlay.New("section", strings.ToLower(a.Subtype)+"Annotation")
		n.SetAttr("data-annotation-id", a.ID)
		n.SetHidden(a.Hidden)
		if a.IsWidget() && forms {
			in := overlay.New("input")
			in.SetAttr("name", a.FieldName)
			in.SetAttr("value", a.FieldValue)
			n.Append(in)
		} else if a.Contents != "" {
			n.SetAttr("title", a.Contents)
		}
		l.root.Append(n)
		l.nodes = append(l.nodes, n)
	}
	l.update(vp)
}

// update repositions the existing nodes for vp.
func (l *annotationLayer) update(vp *viewport.Viewport) {
	for i, a := range l.annots {
		l.nodes[i].Bounds = vp.ConvertToViewportRect(a.Rect)
	}
	l.root.SetHidden(false)
}
