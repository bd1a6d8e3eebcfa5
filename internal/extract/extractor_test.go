package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	dt "github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/parser"
	"github.com/dgallion1/doctext/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	got string
	err error
}

func (s *stubSink) Name() string { return "stub" }

func (s *stubSink) Publish(_ context.Context, text string) error {
	s.got = text
	return s.err
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func notesPage() *dt.Node {
	return dt.NewPage("notes").Append(
		dt.NewTitle(dt.TextPara("Weekly Notes")),
		dt.NewOutline(
			dt.TextPara("Monday tasks"),
			dt.Para(dt.NumberMarker("3."), dt.SelectedRun(dt.All, "Buy milk")),
			dt.Para(dt.BulletMarker(), dt.Run("Buy eggs")),
		),
	)
}

func TestCopyAll(t *testing.T) {
	var logs bytes.Buffer
	stats := NewStats(time.Hour)
	e := NewExtractor(testLogger(&logs), stats)
	s := &stubSink{}

	res, err := e.Copy(context.Background(), notesPage(), dt.ScopeAll, s)
	require.NoError(t, err)

	want := "Weekly Notes\n\nMonday tasks\n3. Buy milk\n* Buy eggs\n"
	assert.Equal(t, want, s.got)
	assert.Equal(t, want, res.Text)
	assert.Equal(t, len(want), res.Bytes)
	assert.Equal(t, "all", res.Scope)
	assert.Equal(t, "stub", res.Sink)
	assert.Contains(t, logs.String(), "copied text")

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 0, snap.Failures)
	assert.EqualValues(t, len(want), snap.Bytes)
}

func TestCopyAutoResolvesRegion(t *testing.T) {
	e := NewExtractor(nil, nil)
	s := &stubSink{}

	res, err := e.Copy(context.Background(), notesPage(), dt.ScopeAuto, s)
	require.NoError(t, err)
	assert.Equal(t, "region", res.Scope)
	assert.Equal(t, "3. Buy milk\n", s.got)
}

func TestCopyEmptyTree(t *testing.T) {
	e := NewExtractor(nil, nil)
	mem := &sink.Memory{}
	page := dt.NewPage("empty").Append(dt.NewTitle())

	res, err := e.Copy(context.Background(), page, dt.ScopeAll, mem)
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.True(t, mem.Published)
}

func TestCopyBusy(t *testing.T) {
	var logs bytes.Buffer
	stats := NewStats(time.Hour)
	e := NewExtractor(testLogger(&logs), stats)
	s := &stubSink{err: &sink.BusyError{Transport: "stub"}}

	res, err := e.Copy(context.Background(), notesPage(), dt.ScopeAll, s)
	require.Error(t, err)
	assert.True(t, sink.IsBusy(err))
	assert.NotEmpty(t, res.Text, "text is built before publishing")
	assert.Equal(t, res.Text, s.got)
	assert.Contains(t, logs.String(), "transport busy")
	assert.Equal(t, 1, stats.Snapshot().Failures)
}

func TestCopyPublishError(t *testing.T) {
	var logs bytes.Buffer
	e := NewExtractor(testLogger(&logs), nil)

	_, err := e.Copy(context.Background(), notesPage(), dt.ScopeAll, &stubSink{err: errors.New("boom")})
	require.Error(t, err)
	assert.False(t, sink.IsBusy(err))
	assert.Contains(t, err.Error(), "publish to stub")
	assert.Contains(t, logs.String(), "publish failed")
}

func TestTextIsIdempotent(t *testing.T) {
	e := NewExtractor(nil, nil)
	page := notesPage()
	first := e.Text(page, dt.ScopeAll)
	assert.Equal(t, first, e.Text(page, dt.ScopeAll))
	assert.Equal(t, "3. Buy milk\n", e.Text(page, dt.ScopeRegion))
	assert.Equal(t, "", e.Text(nil, dt.ScopeAll))
}

func TestRenderThenPublish(t *testing.T) {
	e := NewExtractor(nil, nil)
	res := e.Render(notesPage(), dt.ScopeRegion)
	assert.Equal(t, "3. Buy milk\n", res.Text)
	assert.Empty(t, res.Sink)

	s := &stubSink{}
	res, err := e.Publish(context.Background(), res, s)
	require.NoError(t, err)
	assert.Equal(t, "stub", res.Sink)
	assert.Equal(t, "3. Buy milk\n", s.got)
}

func TestTextKeepsSourceCharacters(t *testing.T) {
	tests := []struct {
		filename, input, want string
	}{
		{"swap.txt", "if a<b then swap", "if a<b then swap\n"},
		{"code.md", "```\nvector<int> v;\n```\n", "vector<int> v;\n"},
		{"esc.html", "<p>use &lt;br&gt; for breaks &lt;script&gt;x&lt;/script&gt;</p>", "use <br> for breaks <script>x</script>\n"},
		{"cmp.csv", "a<b c,d\n", "a<b c\td\n\n"},
	}
	e := NewExtractor(nil, nil)
	for _, tt := range tests {
		p, err := parser.ForFile(tt.filename)
		require.NoError(t, err)
		tree, err := p.Parse(strings.NewReader(tt.input), tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, e.Text(tree, dt.ScopeAll), tt.filename)
	}
}
