package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
)

// Parser converts raw document bytes into a content tree rooted at a Page.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".xml":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes the parsers ForFile hands out.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	return Options{}.ForFile(filename)
}

// ForFile returns the appropriate parser for a filename.
func (o Options) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xml":
		return &OneNoteParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newPage assembles a page from an optional title and body paragraphs.
func newPage(name, title string, body []*doctree.Node) *doctree.Node {
	page := doctree.NewPage(name)
	if title != "" {
		page.Append(doctree.NewTitle(doctree.TextPara(title)))
	}
	if len(body) > 0 {
		page.Append(doctree.NewOutline(body...))
	}
	return page
}

// pageName strips the directory and the given extensions from filename.
func pageName(filename string, exts ...string) string {
	name := filepath.Base(filename)
	for _, ext := range exts {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// collapseSpace folds runs of whitespace inside each line into single
// spaces and drops empty leading and trailing lines.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
