// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"strings"

	"github.com/golang/geo/r2"
)

// Annotation is a page annotation as the annotation layer needs it.
type Annotation struct {
	ID       string
	Subtype  string
	Rect     r2.Rect // PDF units
	Contents string

	// FieldName is set for form widgets.
	FieldName  string
	FieldValue string

	HasAppearance bool
	Hidden        bool
}

// IsWidget reports whether the annotation is an interactive form field.
func (a Annotation) IsWidget() bool { return a.Subtype == "Widget" }

// XFANode is an element of an XFA form tree. Text nodes have Name "#text"
// and carry their content in Value.
type XFANode struct {
	Name       string
	Attributes map[string]string
	Value      string
	Children   []*XFANode
}

// IsText reports whether n is a text node.
func (n *XFANode) IsText() bool { return n.Name == "#text" }

// Texts returns the non-blank text nodes under n in document order.
func (n *XFANode) Texts() []*XFANode {
	var out []*XFANode
	var walk func(*XFANode)
	walk = func(x *XFANode) {
		if x == nil {
			return
		}
		if x.IsText() && strings.TrimSpace(x.Value) != "" {
			out = append(out, x)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// StructNode is an element of the accessibility structure tree.
type StructNode struct {
	Role string
	Alt  string
	Lang string

	// ContentID refers to a TextItem.MarkedContentID; leaves only.
	ContentID string

	Children []*StructNode
}
