// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/overlay"
)

// roleTags maps PDF structure roles to overlay tags.
var roleTags = map[string]string{
	"Document":   "div",
	"Part":       "div",
	"Sect":       "section",
	"Div":        "div",
	"Caption":    "caption",
	"P":          "p",
	"H1":         "h1",
	"H2":         "h2",
	"H3":         "h3",
	"H4":         "h4",
	"H5":         "h5",
	"H6":         "h6",
	"L":          "ul",
	"LI":         "li",
	"Table":      "table",
	"TR":         "tr",
	"TH":         "th",
	"TD":         "td",
	"Figure":     "figure",
	"Link":       "a",
	"BlockQuote": "blockquote",
}

// buildStructTree converts a structure tree into overlay nodes. Leaves that
// reference marked content own the text fragment with that id.
func buildStructTree(n *document.StructNode) *overlay.Node {
	tag, ok := roleTags[n.Role]
	if !ok {
		tag = "span"
	}
	out := overlay.New(tag)
	out.SetAttr("role", n.Role)
	out.SetAttr("aria-label", n.Alt)
	out.SetAttr("lang", n.Lang)
	out.SetAttr("aria-owns", n.ContentID)
	for _, c := range n.Children {
		out.Append(buildStructTree(c))
	}
	return out
}
