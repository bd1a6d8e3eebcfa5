package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/doctext/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []*doctree.Node
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, doctree.TextPara(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return newPage(pageName(filename, ".txt"), "", paragraphs), nil
}
