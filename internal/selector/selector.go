// Package selector picks the top-level paragraphs of a page that take part in
// a plain-text extraction.
package selector

import (
	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/plaintext"
)

// Block is one top-level paragraph handed to the renderer.
type Block struct {
	Paragraph *doctree.Node
	InTitle   bool // The paragraph is a direct child of the page Title.
}

// Select returns, in document order, the paragraphs directly under the page
// Title followed by those directly under each Outline's top-level Children.
// Nested paragraphs are left to the renderer. The scope decides which
// containers are visited; no selection filtering happens here, so both
// scopes currently visit the same containers.
func Select(root *doctree.Node, _ doctree.Scope) []Block {
	if root == nil {
		return nil
	}

	var blocks []Block
	for _, title := range root.ChildrenOf(doctree.Title) {
		for _, p := range title.ChildrenOf(doctree.Paragraph) {
			blocks = append(blocks, Block{Paragraph: p, InTitle: true})
		}
	}
	for _, outline := range root.ChildrenOf(doctree.Outline) {
		for _, container := range outline.ChildrenOf(doctree.Children) {
			for _, p := range container.ChildrenOf(doctree.Paragraph) {
				blocks = append(blocks, Block{Paragraph: p})
			}
		}
	}
	return blocks
}

// DetectScope resolves ScopeAuto from the selection markers on the tree:
// Region when some run marked selected=all holds visible text, otherwise All.
// A lone empty selected run is a caret, not a region.
func DetectScope(root *doctree.Node) doctree.Scope {
	scope := doctree.ScopeAll
	root.Walk(func(n *doctree.Node) bool {
		if scope == doctree.ScopeRegion {
			return false
		}
		if n.Kind == doctree.TextRun && n.Selected == doctree.All && plaintext.Join(n.Segments) != "" {
			scope = doctree.ScopeRegion
			return false
		}
		return true
	})
	return scope
}

// Resolve returns scope unchanged unless it is ScopeAuto, in which case the
// scope is detected from root.
func Resolve(root *doctree.Node, scope doctree.Scope) doctree.Scope {
	if scope == doctree.ScopeAuto {
		return DetectScope(root)
	}
	return scope
}
