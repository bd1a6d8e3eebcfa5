package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"golang.org/x/net/html/charset"
)

// OneNoteParser handles page XML as exported by OneNote (the one: schema).
// Elements are matched by local name so any namespace prefix works. The
// selected attributes on runs and paragraphs are kept for region scope.
type OneNoteParser struct{}

var oneNoteKinds = map[string]doctree.Kind{
	"Title":      doctree.Title,
	"Outline":    doctree.Outline,
	"OEChildren": doctree.Children,
	"OE":         doctree.Paragraph,
	"T":          doctree.TextRun,
	"List":       doctree.List,
	"Number":     doctree.ListItem,
	"Bullet":     doctree.ListItem,
	"Table":      doctree.Table,
	"Row":        doctree.Row,
	"Cell":       doctree.Cell,
}

func (p *OneNoteParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	page := doctree.NewPage(pageName(filename, ".xml"))
	var stack []*doctree.Node
	var text strings.Builder
	sawText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse onenote xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "Page" && len(stack) == 0 {
				if v := xmlAttr(t, "name"); v != "" {
					page.Name = v
				}
				stack = append(stack, page)
				continue
			}
			if len(stack) == 0 {
				// Wrapper around the page; descend.
				continue
			}

			parent := stack[len(stack)-1]
			kind, ok := oneNoteKinds[name]
			if !ok {
				if parent.Kind == doctree.Paragraph {
					parent.Append(&doctree.Node{Kind: doctree.Other, Name: name})
				}
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse onenote xml: %w", err)
				}
				continue
			}

			n := &doctree.Node{Kind: kind, Selected: doctree.ParseSelection(xmlAttr(t, "selected"))}
			switch name {
			case "Number":
				n.Tag = doctree.OrdinalTag
				n.Text = xmlAttr(t, "text")
			case "Bullet":
				n.Tag = name
			case "T":
				text.Reset()
				sawText = false
			}
			parent.Append(n)
			stack = append(stack, n)

		case xml.CharData:
			// Indentation around a pretty-printed CDATA section is not
			// run text.
			if isXMLIndent(t) {
				continue
			}
			if len(stack) > 0 && stack[len(stack)-1].Kind == doctree.TextRun {
				text.Write(t)
				sawText = true
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.Kind == doctree.TextRun && sawText {
				top.Segments = []string{text.String()}
				sawText = false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("parse onenote xml: unexpected end of document")
	}
	return page, nil
}

// isXMLIndent reports whether b is whitespace spanning a line break.
func isXMLIndent(b []byte) bool {
	return bytes.ContainsAny(b, "\r\n") && len(bytes.TrimSpace(b)) == 0
}

func xmlAttr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
