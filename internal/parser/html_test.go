package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_Structure(t *testing.T) {
	input := `<html><head><title>Weekly Notes</title><style>p { color: red }</style></head>
<body>
<nav>Home | About</nav>
<h2>Monday</h2>
<p>Call   the <b>plumber</b></p>
<ol start="3"><li>Buy milk</li><li>Buy <i>eggs</i><ul><li>brown</li></ul></li></ol>
<table><tr><th>A</th><th>B</th></tr><tr><td>C</td><td>D</td></tr></table>
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Name != "notes" {
		t.Errorf("expected name %q, got %q", "notes", tree.Name)
	}

	want := "Weekly Notes\n\nMonday\nCall the plumber\n3. Buy milk\n4. Buy eggs\n* brown\nA\tB\nC\tD\n\n"
	if got := renderAll(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHTMLParser_H1Title(t *testing.T) {
	input := `<body><h1>Heading</h1><div>loose <em>text</em><p>para</p>tail</div></body>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := titleText(tree); got != "Heading" {
		t.Errorf("expected title %q, got %q", "Heading", got)
	}

	want := "Heading\n\nloose text\npara\ntail\n"
	if got := renderAll(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHTMLParser_LineBreaks(t *testing.T) {
	input := `<p>line one<br>line two</p><pre>
  keep   spacing
</pre>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "br.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "line one\nline two\n  keep   spacing\n"
	if got := renderAll(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHTMLParser_KeepsEscapedMarkup(t *testing.T) {
	input := `<html><head><title>A &amp; B</title></head><body>
<p>use &lt;br&gt; for breaks &lt;script&gt;x&lt;/script&gt; &amp; more</p>
<table><tr><td>a&lt;b</td></tr></table>
<ul><li>x &gt; y</li></ul>
</body></html>`
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "esc.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := titleText(tree); got != "A & B" {
		t.Errorf("expected title %q, got %q", "A & B", got)
	}
	want := "A & B\n\nuse <br> for breaks <script>x</script> & more\na<b\n\n* x > y\n"
	if got := renderAll(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
