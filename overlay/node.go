// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package overlay is the retained node tree that page overlays are built
// from: text fragments, annotation widgets, XFA form fields and the
// accessibility structure tree.
//
// Nodes are owned by whoever created them. Code that does not own a node
// (the text highlighter) may only change its highlight spans; it never
// detaches or recreates it.
//
// Nodes are not safe for concurrent use. They live on the run loop.
package overlay

import (
	"slices"
	"strings"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"
)

// Node is an element of an overlay tree.
type Node struct {
	tag      string
	classes  []string
	attrs    map[string]string
	text     string
	parent   *Node
	children []*Node

	// Bounds is the node's box in viewport units.
	Bounds r2.Rect

	// Angle is the rotation of the node around its top-left corner, radians.
	Angle float64

	// FontSize in viewport units; zero for non-text nodes.
	FontSize float64

	// ScaleX stretches text horizontally to match the painted glyph run.
	ScaleX float64

	// Transform is an additional display transform (CSS-only zoom).
	Transform gg.Matrix

	hidden     bool
	highlights []Span
	version    uint64
}

// New creates a detached node.
func New(tag string, classes ...string) *Node {
	return &Node{
		tag:       tag,
		classes:   slices.Clone(classes),
		ScaleX:    1,
		Transform: gg.Identity(),
	}
}

// NewText creates a detached node holding text.
func NewText(tag, text string) *Node {
	n := New(tag)
	n.text = text
	return n
}

// Tag returns the node's element name.
func (n *Node) Tag() string { return n.tag }

// Text returns the node's own text.
func (n *Node) Text() string { return n.text }

// SetText replaces the node's own text and drops its highlight spans.
func (n *Node) SetText(s string) {
	n.text = s
	n.highlights = nil
	n.touch()
}

// Parent returns the node's parent or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Append attaches children to n, detaching them from any previous parent.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Remove()
		c.parent = n
		n.children = append(n.children, c)
	}
	n.touch()
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
	p.touch()
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	n.touch()
}

// Contains reports whether c is n or a descendant of n.
func (n *Node) Contains(c *Node) bool {
	for ; c != nil; c = c.parent {
		if c == n {
			return true
		}
	}
	return false
}

// AddClass adds class names that are not present yet.
func (n *Node) AddClass(names ...string) {
	for _, name := range names {
		if !n.HasClass(name) {
			n.classes = append(n.classes, name)
		}
	}
}

// RemoveClass removes class names.
func (n *Node) RemoveClass(names ...string) {
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool {
		return slices.Contains(names, c)
	})
}

// HasClass reports whether n carries the class name.
func (n *Node) HasClass(name string) bool { return slices.Contains(n.classes, name) }

// Classes returns the node's class names.
func (n *Node) Classes() []string { return n.classes }

// SetAttr sets an attribute. An empty value removes it.
func (n *Node) SetAttr(key, value string) {
	if value == "" {
		delete(n.attrs, key)
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// Hidden reports whether the node is hidden.
func (n *Node) Hidden() bool { return n.hidden }

// SetHidden hides or shows the node.
func (n *Node) SetHidden(hidden bool) { n.hidden = hidden }

// Version increases every time the node's content or children change.
func (n *Node) Version() uint64 { return n.version }

func (n *Node) touch() { n.version++ }

// Walk calls fn for n and its descendants in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// FindByClass returns the descendants of n (n included) carrying class.
func (n *Node) FindByClass(class string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.HasClass(class) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		sb.WriteString(c.text)
		return true
	})
	return sb.String()
}
