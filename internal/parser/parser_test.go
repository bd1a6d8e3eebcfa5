package parser

import (
	"fmt"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"page.xml", "*parser.OneNoteParser"},
		{"notes.txt", "*parser.TextParser"},
		{"README.MD", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
		{"data.csv", "*parser.CSVParser"},
		{"index.htm", "*parser.HTMLParser"},
		{"scan.pdf", "*parser.PDFParser"},
		{"memo.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	if _, err := ForFile("image.png"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if IsSupportedExtension("image.png") {
		t.Error("expected .png to be unsupported")
	}
	if !IsSupportedExtension("Notes.XML") {
		t.Error("expected .XML to be supported")
	}
}

func TestOptions_PDFFallback(t *testing.T) {
	p, err := Options{PDFFallbackPdftotext: true}.ForFile("scan.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pdf, ok := p.(*PDFParser)
	if !ok || !pdf.FallbackPdftotext {
		t.Errorf("expected pdf parser with fallback, got %#v", p)
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  a   b  ", "a b"},
		{"\n a \n\n b \n", "a\n\nb"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := collapseSpace(tt.in); got != tt.want {
			t.Errorf("collapseSpace(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
