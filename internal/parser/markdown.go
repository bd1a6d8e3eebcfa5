package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. A leading level-one
// heading becomes the page title; lists keep their markers and GFM tables
// become tables.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var title string
	first := doc.FirstChild()
	if h, ok := first.(*ast.Heading); ok && h.Level == 1 {
		title = inlineText(h, src)
		first = first.NextSibling()
	}

	var body []*doctree.Node
	for n := first; n != nil; n = n.NextSibling() {
		body = append(body, mdBlock(n, src)...)
	}

	return newPage(pageName(filename, ".md", ".markdown"), title, body), nil
}

// mdBlock converts one block node into zero or more paragraphs.
func mdBlock(n ast.Node, src []byte) []*doctree.Node {
	switch node := n.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		return []*doctree.Node{doctree.TextPara(inlineText(node, src))}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []*doctree.Node{doctree.TextPara(blockLines(node, src))}
	case *ast.HTMLBlock:
		// Markup is kept as is; decoding drops the tags and keeps their text.
		if raw := strings.TrimSpace(blockLines(node, src)); raw != "" {
			return []*doctree.Node{doctree.Para(doctree.Run(raw))}
		}
		return nil
	case *ast.List:
		return mdList(node, src)
	case *ast.Blockquote:
		var out []*doctree.Node
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, mdBlock(c, src)...)
		}
		return out
	case *east.Table:
		return []*doctree.Node{doctree.Para(mdTable(node, src))}
	}
	return nil
}

// mdList turns each list item into a paragraph whose first run is preceded by
// its marker. Blocks after the item's first text block nest under it.
func mdList(list *ast.List, src []byte) []*doctree.Node {
	var out []*doctree.Node
	i := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var marker *doctree.Node
		if list.IsOrdered() {
			marker = doctree.NumberMarker(fmt.Sprintf("%d%c", list.Start+i, list.Marker))
		} else {
			marker = doctree.BulletMarker()
		}
		i++

		para := doctree.Para(marker)
		var nested []*doctree.Node
		c := item.FirstChild()
		switch c.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			para.Append(doctree.PlainRun(inlineText(c, src)))
			c = c.NextSibling()
		}
		for ; c != nil; c = c.NextSibling() {
			nested = append(nested, mdBlock(c, src)...)
		}
		if len(nested) > 0 {
			para.Append(doctree.Nested(nested...))
		}
		out = append(out, para)
	}
	return out
}

func mdTable(table *east.Table, src []byte) *doctree.Node {
	var rows [][]*doctree.Node
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []*doctree.Node
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, doctree.TextPara(inlineText(cell, src)))
		}
		rows = append(rows, cells)
	}
	return doctree.NewTable(rows...)
}

// inlineText gets the text of a node's inline children. Soft line breaks
// become spaces, hard breaks line feeds.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() {
					buf.WriteByte('\n')
				} else if t.SoftLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.AutoLink:
				buf.Write(t.Label(src))
			case *ast.RawHTML:
				// Inline tags carry no text of their own.
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// blockLines joins the raw lines of a code block.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
