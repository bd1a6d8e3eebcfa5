package doctree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Kind tags what a Node represents in a page's content tree.
type Kind int

const (
	Page      Kind = iota // Root of one document.
	Title                 // Page title container.
	Outline               // Body container.
	Paragraph             // Outline element: runs, markers, tables, nested children.
	Children              // Container for nested paragraphs.
	List                  // Marker preceding a paragraph's runs.
	ListItem              // Marker detail: Tag "Number" (ordinal) or a bullet.
	Table
	Row
	Cell
	TextRun // Leaf carrying raw text segments.
	Other   // Unsupported content (images, ink, ...). Kept so sibling order stays intact.
)

var kindNames = [...]string{
	Page:      "Page",
	Title:     "Title",
	Outline:   "Outline",
	Paragraph: "Paragraph",
	Children:  "Children",
	List:      "List",
	ListItem:  "ListItem",
	Table:     "Table",
	Row:       "Row",
	Cell:      "Cell",
	TextRun:   "TextRun",
	Other:     "Other",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Selection records how much of a node the user's on-screen selection covers.
type Selection int

const (
	None Selection = iota
	Partial
	All
)

func (s Selection) String() string {
	switch s {
	case Partial:
		return "partial"
	case All:
		return "all"
	}
	return "none"
}

// ParseSelection maps a "selected" attribute value to a Selection.
// Unknown and empty values mean None.
func ParseSelection(v string) Selection {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "all":
		return All
	case "partial":
		return Partial
	}
	return None
}

// OrdinalTag is the ListItem tag of numbered list markers.
const OrdinalTag = "Number"

// Node is the universal content tree unit. A tree is owned by its caller and
// is treated as read-only by everything in this module.
type Node struct {
	Kind     Kind
	Children []*Node

	// Segments holds the raw character data of a TextRun, one entry per
	// embedded markup payload. Zero segments means the run has no data.
	Segments []string

	// Tag and Text describe a ListItem marker.
	Tag  string
	Text string

	Selected Selection

	// Name is the source name of a Page (usually a filename). Never rendered.
	Name string
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(kind Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns the direct children of the given kind in document order.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c != nil && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Append adds children and returns n, so trees can be built inline.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// NewPage returns an empty page root.
func NewPage(name string) *Node {
	return &Node{Kind: Page, Name: name}
}

// NewTitle returns a Title container holding the given paragraphs.
func NewTitle(paragraphs ...*Node) *Node {
	return &Node{Kind: Title, Children: paragraphs}
}

// NewOutline returns an Outline whose top-level Children holds the given paragraphs.
func NewOutline(paragraphs ...*Node) *Node {
	return &Node{Kind: Outline, Children: []*Node{Nested(paragraphs...)}}
}

// Run returns a TextRun with the given segments.
func Run(segments ...string) *Node {
	return &Node{Kind: TextRun, Segments: segments}
}

// SelectedRun returns a TextRun carrying a selection marker.
func SelectedRun(sel Selection, segments ...string) *Node {
	return &Node{Kind: TextRun, Segments: segments, Selected: sel}
}

// Para returns a Paragraph with the given children.
func Para(children ...*Node) *Node {
	return &Node{Kind: Paragraph, Children: children}
}

// PlainRun returns a TextRun for text that carries no markup. Segments hold
// markup, so the text is escaped and decodes back to itself.
func PlainRun(text string) *Node {
	return Run(html.EscapeString(text))
}

// TextPara returns a Paragraph holding a single run of plain text.
func TextPara(text string) *Node {
	return Para(PlainRun(text))
}

// Nested returns a Children container holding the given paragraphs.
func Nested(paragraphs ...*Node) *Node {
	return &Node{Kind: Children, Children: paragraphs}
}

// NumberMarker returns a List node with an ordinal marker such as "3.".
func NumberMarker(text string) *Node {
	return &Node{Kind: List, Children: []*Node{{Kind: ListItem, Tag: OrdinalTag, Text: text}}}
}

// BulletMarker returns a List node with a bullet marker.
func BulletMarker() *Node {
	return &Node{Kind: List, Children: []*Node{{Kind: ListItem, Tag: "Bullet"}}}
}

// NewTable returns a Table whose rows hold one paragraph per cell.
func NewTable(rows ...[]*Node) *Node {
	t := &Node{Kind: Table}
	for _, cells := range rows {
		r := &Node{Kind: Row}
		for _, p := range cells {
			r.Children = append(r.Children, &Node{Kind: Cell, Children: []*Node{Nested(p)}})
		}
		t.Children = append(t.Children, r)
	}
	return t
}

// Scope selects whether an extraction covers the whole page or only the
// region the user marked.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeRegion
	ScopeAuto // Resolved against the tree's selection markers before rendering.
)

func (s Scope) String() string {
	switch s {
	case ScopeRegion:
		return "region"
	case ScopeAuto:
		return "auto"
	}
	return "all"
}

// ParseScope parses "all", "region" or "auto". Empty means all.
func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all", "page":
		return ScopeAll, nil
	case "region", "selection":
		return ScopeRegion, nil
	case "auto":
		return ScopeAuto, nil
	}
	return ScopeAll, fmt.Errorf("unknown scope: %q", v)
}
