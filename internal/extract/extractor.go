package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/render"
	"github.com/dgallion1/doctext/internal/selector"
	"github.com/dgallion1/doctext/internal/sink"
)

// Extractor renders content trees to plain text and publishes the result.
// Each call owns its output buffer, so one Extractor may serve concurrent
// extractions of different trees.
type Extractor struct {
	log   *slog.Logger
	Stats *Stats
}

func NewExtractor(log *slog.Logger, stats *Stats) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log, Stats: stats}
}

// Result describes one finished extraction.
type Result struct {
	Text     string        `json:"text"`
	Bytes    int           `json:"bytes"`
	Scope    string        `json:"scope"`
	Sink     string        `json:"sink"`
	Duration time.Duration `json:"-"`

	start time.Time
}

// Text renders root in the given scope. ScopeAuto is resolved against the
// tree's selection markers first.
func (e *Extractor) Text(root *doctree.Node, scope doctree.Scope) string {
	return renderTree(root, selector.Resolve(root, scope))
}

// Render builds the text of root without publishing it.
func (e *Extractor) Render(root *doctree.Node, scope doctree.Scope) Result {
	start := time.Now()
	scope = selector.Resolve(root, scope)
	text := renderTree(root, scope)
	return Result{
		Text:  text,
		Bytes: len(text),
		Scope: scope.String(),
		start: start,
	}
}

// Copy renders root and publishes the text to s. The text is fully built
// before publishing; a busy transport is returned as-is and not retried.
func (e *Extractor) Copy(ctx context.Context, root *doctree.Node, scope doctree.Scope, s sink.Sink) (Result, error) {
	return e.Publish(ctx, e.Render(root, scope), s)
}

// Publish hands a rendered result to s and records the outcome.
func (e *Extractor) Publish(ctx context.Context, res Result, s sink.Sink) (Result, error) {
	if res.start.IsZero() {
		res.start = time.Now()
	}
	if s != nil {
		res.Sink = s.Name()
	}

	err := sink.Finalize(ctx, s, res.Text)
	res.Duration = time.Since(res.start)
	if e.Stats != nil {
		e.Stats.Record(res.Duration.Milliseconds(), res.Bytes, err != nil)
	}

	log := e.log.With("scope", res.Scope, "sink", res.Sink, "bytes", res.Bytes)
	if err != nil {
		if sink.IsBusy(err) {
			log.Warn("transport busy", "error", err)
		} else {
			log.Error("publish failed", "error", err)
		}
		return res, err
	}
	log.Info("copied text", "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func renderTree(root *doctree.Node, scope doctree.Scope) string {
	all := scope != doctree.ScopeRegion
	var buf strings.Builder
	for _, b := range selector.Select(root, scope) {
		render.Block(all, b, &buf)
	}
	return buf.String()
}
