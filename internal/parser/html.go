package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML files. The <title> (or, failing that, the first
// <h1>) becomes the page title; block elements become paragraphs.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := ""
	if t := findElement(doc, atom.Title); t != nil {
		title = collapseSpace(textContent(t))
	}

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}

	w := &htmlWalker{takeH1: title == ""}
	w.walk(root)
	if w.title != "" {
		title = w.title
	}

	return newPage(pageName(filename, ".html", ".htm"), title, w.body), nil
}

type htmlWalker struct {
	takeH1 bool
	title  string
	body   []*doctree.Node
}

func (w *htmlWalker) walk(n *html.Node) {
	w.body = append(w.body, w.blocks(n)...)
}

var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Nav: true, atom.Footer: true,
	atom.Header: true, atom.Head: true, atom.Noscript: true, atom.Template: true,
}

var blockAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.P: true, atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Table: true,
	atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true, atom.Blockquote: true,
	atom.Body: true, atom.Html: true, atom.Aside: true, atom.Figure: true, atom.Form: true,
	atom.Dl: true, atom.Dd: true, atom.Dt: true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && (blockAtoms[n.DataAtom] || skipAtoms[n.DataAtom])
}

// blocks converts the children of a container element into paragraphs.
// Loose inline content between blocks becomes its own paragraph.
func (w *htmlWalker) blocks(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	var loose strings.Builder

	flush := func() {
		out = appendText(out, collapseSpace(loose.String()))
		loose.Reset()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			loose.WriteString(c.Data)
		case isBlock(c):
			flush()
			out = append(out, w.block(c)...)
		case c.Type == html.ElementNode:
			loose.WriteString(textContent(c))
		}
	}
	flush()
	return out
}

func (w *htmlWalker) block(n *html.Node) []*doctree.Node {
	if skipAtoms[n.DataAtom] {
		return nil
	}
	switch n.DataAtom {
	case atom.H1:
		if w.takeH1 {
			w.takeH1 = false
			w.title = collapseSpace(textContent(n))
			return nil
		}
		return appendText(nil, collapseSpace(textContent(n)))
	case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P:
		return appendText(nil, collapseSpace(textContent(n)))
	case atom.Pre:
		return appendText(nil, strings.Trim(textContent(n), "\n"))
	case atom.Ul, atom.Ol:
		return w.list(n)
	case atom.Table:
		return []*doctree.Node{doctree.Para(htmlTable(n))}
	}
	return w.blocks(n)
}

// list maps each <li> to a paragraph led by its marker. Nested lists and
// block content after the item's text nest under it.
func (w *htmlWalker) list(n *html.Node) []*doctree.Node {
	ordered := n.DataAtom == atom.Ol
	number := 1
	if v := attr(n, "start"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			number = s
		}
	}

	var out []*doctree.Node
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		var marker *doctree.Node
		if ordered {
			marker = doctree.NumberMarker(strconv.Itoa(number) + ".")
			number++
		} else {
			marker = doctree.BulletMarker()
		}

		var inline strings.Builder
		var nested []*doctree.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if !isBlock(c) {
				if len(nested) == 0 {
					inline.WriteString(textContent(c))
				}
				continue
			}
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol || strings.TrimSpace(inline.String()) != "" {
				nested = append(nested, w.block(c)...)
				continue
			}
			inline.WriteString(textContent(c))
		}

		para := doctree.Para(marker, doctree.PlainRun(collapseSpace(inline.String())))
		if len(nested) > 0 {
			para.Append(doctree.Nested(nested...))
		}
		out = append(out, para)
	}
	return out
}

func htmlTable(n *html.Node) *doctree.Node {
	var rows [][]*doctree.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				visit(c)
			case atom.Tr:
				var cells []*doctree.Node
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						cells = append(cells, doctree.TextPara(collapseSpace(textContent(cell))))
					}
				}
				rows = append(rows, cells)
			}
		}
	}
	visit(n)
	return doctree.NewTable(rows...)
}

func appendText(out []*doctree.Node, text string) []*doctree.Node {
	if text == "" {
		return out
	}
	return append(out, doctree.TextPara(text))
}

// textContent concatenates the text below n. <br> becomes a line feed.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			buf.WriteByte('\n')
			return
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
