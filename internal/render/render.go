// Package render turns content tree paragraphs into plain text.
//
// Layout rules, per paragraph and in this order:
//
//   - Runs: the paragraph's own text runs are decoded and joined. A List
//     sibling right before the first run makes the line "<number> text" or
//     "* text". Otherwise the text ends the line only when the last run is
//     the paragraph's last child; when more content follows (nested
//     paragraphs, tables) the text is left open and continues inline.
//   - Nested paragraphs are rendered recursively.
//   - Table rows become tab-separated lines, followed by one blank line when
//     any row was written.
//
// In region scope only runs marked selected=all are emitted, and only table
// cell paragraphs that carry any selection marker.
package render

import (
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/plaintext"
	"github.com/dgallion1/doctext/internal/selector"
)

// Block renders one top-level paragraph. A title paragraph that produced
// text is followed by a blank line separating it from the body.
func Block(all bool, b selector.Block, buf *strings.Builder) {
	before := buf.Len()
	Paragraph(all, b.Paragraph, buf)
	if b.InTitle && buf.Len() > before {
		buf.WriteByte('\n')
	}
}

// Paragraph appends the text of p and everything nested under it to buf.
// It never fails; unexpected shapes simply contribute nothing.
func Paragraph(all bool, p *doctree.Node, buf *strings.Builder) {
	if p == nil {
		return
	}

	writeRuns(all, p, buf)

	for _, container := range p.ChildrenOf(doctree.Children) {
		for _, child := range container.ChildrenOf(doctree.Paragraph) {
			Paragraph(all, child, buf)
		}
	}

	writeTables(all, p, buf)
}

func writeRuns(all bool, p *doctree.Node, buf *strings.Builder) {
	first, last := -1, -1
	var text strings.Builder
	for i, c := range p.Children {
		if c == nil || c.Kind != doctree.TextRun || len(c.Segments) == 0 {
			continue
		}
		if !all && c.Selected != doctree.All {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		for _, s := range c.Segments {
			text.WriteString(plaintext.Decode(s))
		}
	}
	if first < 0 {
		return
	}

	if marker, ok := listMarker(p.Children, first); ok {
		buf.WriteString(marker)
		buf.WriteByte(' ')
		buf.WriteString(text.String())
		buf.WriteByte('\n')
		return
	}

	buf.WriteString(text.String())
	if last == len(p.Children)-1 {
		buf.WriteByte('\n')
	}
}

// listMarker looks at the sibling before index i. A List whose first item is
// ordinal yields that item's marker text; any other item yields a bullet.
func listMarker(siblings []*doctree.Node, i int) (string, bool) {
	if i <= 0 {
		return "", false
	}
	prev := siblings[i-1]
	if prev == nil || prev.Kind != doctree.List || len(prev.Children) == 0 {
		return "", false
	}
	item := prev.Children[0]
	if item == nil {
		return "", false
	}
	if item.Tag == doctree.OrdinalTag {
		return item.Text, true
	}
	return "*", true
}

func writeTables(all bool, p *doctree.Node, buf *strings.Builder) {
	content := false
	for _, table := range p.ChildrenOf(doctree.Table) {
		for _, row := range table.ChildrenOf(doctree.Row) {
			var cells []string
			for _, cell := range row.ChildrenOf(doctree.Cell) {
				for _, container := range cell.ChildrenOf(doctree.Children) {
					for _, cp := range container.ChildrenOf(doctree.Paragraph) {
						if all || cp.Selected != doctree.None {
							cells = append(cells, Text(cp))
						}
					}
				}
			}
			if len(cells) == 0 {
				continue
			}
			buf.WriteString(strings.Join(cells, "\t"))
			buf.WriteByte('\n')
			content = true
		}
	}
	if content {
		buf.WriteByte('\n')
	}
}

// Text returns the decoded text of every run under n, concatenated in
// document order, without any list or line-break handling.
func Text(n *doctree.Node) string {
	var buf strings.Builder
	n.Walk(func(c *doctree.Node) bool {
		if c.Kind == doctree.TextRun {
			buf.WriteString(plaintext.Join(c.Segments))
		}
		return true
	})
	return buf.String()
}
