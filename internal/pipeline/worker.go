package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/parser"
	"github.com/dgallion1/doctext/internal/sink"
)

// Worker processes a single document job.
type Worker struct {
	extractor *extract.Extractor
	sinks     *sink.Factory
	parsers   parser.Options
	log       *slog.Logger
}

func NewWorker(ex *extract.Extractor, sinks *sink.Factory, parsers parser.Options, log *slog.Logger) *Worker {
	return &Worker{
		extractor: ex,
		sinks:     sinks,
		parsers:   parsers,
		log:       log,
	}
}

// Process parses the job's file, renders it and publishes the text. A busy
// transport ends the job in StatusBusy; it is not retried.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := w.parsers.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFile()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Render
	job.SetStatus(StatusRendering, "rendering")
	scope, err := doctree.ParseScope(job.Scope)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	res := w.extractor.Render(tree, scope)
	job.SetResult(res.Text, res.Scope)
	log.Info("rendered document", "scope", res.Scope, "bytes", res.Bytes)

	// Phase 3: Publish
	s, err := w.sinks.New(job.Sink, job.DocID)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "publishing")
		return
	}
	job.SetStatus(StatusPublishing, "publishing")
	if _, err := w.extractor.Publish(ctx, res, s); err != nil {
		job.AddError(err.Error())
		if sink.IsBusy(err) {
			job.SetStatus(StatusBusy, "publishing")
			return
		}
		job.SetStatus(StatusFailed, "publishing")
		return
	}

	job.SetStatus(StatusCompleted, "done")
}
