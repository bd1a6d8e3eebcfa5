package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/doctext/internal/doctree"
)

// CSVParser handles CSV files. The whole file becomes one table, one row per
// record, so rows render as tab-separated lines.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	name := pageName(filename, ".csv")
	if len(records) == 0 {
		return newPage(name, "", nil), nil
	}

	rows := make([][]*doctree.Node, 0, len(records))
	for _, record := range records {
		cells := make([]*doctree.Node, 0, len(record))
		for _, field := range record {
			cells = append(cells, doctree.TextPara(field))
		}
		rows = append(rows, cells)
	}

	return newPage(name, "", []*doctree.Node{doctree.Para(doctree.NewTable(rows...))}), nil
}
