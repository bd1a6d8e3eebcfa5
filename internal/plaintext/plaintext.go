// Package plaintext decodes the markup payloads stored in text runs into
// plain characters.
package plaintext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

var fragmentContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "span",
	DataAtom: atom.Span,
}

// Decode strips markup from a raw run segment. Tags are dropped, entities
// decoded and <br> becomes a line feed. Segments without markup come back
// unchanged apart from NFC normalisation. Decode never fails: if the
// segment cannot be parsed it is returned as-is.
func Decode(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return norm.NFC.String(raw)
	}

	nodes, err := html.ParseFragment(strings.NewReader(raw), fragmentContext)
	if err != nil {
		return raw
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Br:
				buf.WriteByte('\n')
				return
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return norm.NFC.String(buf.String())
}

// Join decodes each segment and concatenates the results in order. Empty
// segments contribute nothing.
func Join(segments []string) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return Decode(segments[0])
	}
	var buf strings.Builder
	for _, s := range segments {
		buf.WriteString(Decode(s))
	}
	return buf.String()
}
