package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. A leading "Title" or "Heading1" styled
// paragraph becomes the page title; numbered paragraphs become list items
// nested by indent level.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "doctext-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := &docxBuilder{counters: make(map[string]int)}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			b.paragraph(it)
		case *docx.Table:
			b.endList()
			b.body = append(b.body, doctree.Para(docxTable(it)))
		}
	}

	return newPage(pageName(filename, ".docx"), b.title, b.body), nil
}

type docxLevel struct {
	level int
	para  *doctree.Node
}

type docxBuilder struct {
	title    string
	body     []*doctree.Node
	stack    []docxLevel
	counters map[string]int // numID/level -> last number used
}

func (b *docxBuilder) paragraph(para *docx.Paragraph) {
	text := docxParagraphText(para)
	style := docxStyle(para)

	if b.title == "" && len(b.body) == 0 && (strings.EqualFold(style, "Title") || strings.EqualFold(style, "Heading1")) && text != "" {
		b.title = text
		return
	}

	numID, level, ok := docxNumbering(para)
	if !ok {
		b.endList()
		if text != "" {
			b.body = append(b.body, doctree.TextPara(text))
		}
		return
	}

	var marker *doctree.Node
	if strings.Contains(style, "Number") {
		key := numID + "/" + strconv.Itoa(level)
		b.counters[key]++
		for k := level + 1; k < 10; k++ {
			delete(b.counters, numID+"/"+strconv.Itoa(k))
		}
		marker = doctree.NumberMarker(strconv.Itoa(b.counters[key]) + ".")
	} else {
		marker = doctree.BulletMarker()
	}
	item := doctree.Para(marker, doctree.PlainRun(text))

	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	if len(b.stack) == 0 {
		b.body = append(b.body, item)
	} else {
		parent := b.stack[len(b.stack)-1].para
		nested := parent.Child(doctree.Children)
		if nested == nil {
			nested = doctree.Nested()
			parent.Append(nested)
		}
		nested.Append(item)
	}
	b.stack = append(b.stack, docxLevel{level: level, para: item})
}

// endList closes any open list so numbering restarts.
func (b *docxBuilder) endList() {
	b.stack = b.stack[:0]
	clear(b.counters)
}

// docxNumbering reports the numbering instance and indent level of a list
// paragraph. Paragraphs with a list style but no numPr count as level 0.
func docxNumbering(para *docx.Paragraph) (string, int, bool) {
	if para.Properties != nil && para.Properties.NumProperties != nil {
		np := para.Properties.NumProperties
		if np.NumID != nil && np.NumID.Val != "" && np.NumID.Val != "0" {
			level := 0
			if np.Ilvl != nil {
				if v, err := strconv.Atoi(np.Ilvl.Val); err == nil {
					level = v
				}
			}
			return np.NumID.Val, level, true
		}
	}
	style := docxStyle(para)
	for _, s := range []string{"List", "Number", "Bullet"} {
		if strings.Contains(style, s) {
			return style, 0, true
		}
	}
	return "", 0, false
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxTable(t *docx.Table) *doctree.Node {
	var rows [][]*doctree.Node
	for _, row := range t.TableRows {
		var cells []*doctree.Node
		for _, cell := range row.TableCells {
			var lines []string
			for _, p := range cell.Paragraphs {
				if s := docxParagraphText(p); s != "" {
					lines = append(lines, s)
				}
			}
			cells = append(cells, doctree.TextPara(strings.Join(lines, "\n")))
		}
		rows = append(rows, cells)
	}
	return doctree.NewTable(rows...)
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			docxRunText(c, &buf)
		case *docx.Hyperlink:
			docxRunText(&c.Run, &buf)
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxRunText(run *docx.Run, buf *strings.Builder) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
}
