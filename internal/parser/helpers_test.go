package parser

import (
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/render"
	"github.com/dgallion1/doctext/internal/selector"
)

// renderAll renders a parsed page with scope all.
func renderAll(root *doctree.Node) string {
	var buf strings.Builder
	for _, b := range selector.Select(root, doctree.ScopeAll) {
		render.Block(true, b, &buf)
	}
	return buf.String()
}

// bodyParagraphs returns the outline's top-level paragraphs.
func bodyParagraphs(root *doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	for _, b := range selector.Select(root, doctree.ScopeAll) {
		if !b.InTitle {
			out = append(out, b.Paragraph)
		}
	}
	return out
}

// titleText returns the rendered text of the page title, if any.
func titleText(root *doctree.Node) string {
	return render.Text(root.Child(doctree.Title))
}
