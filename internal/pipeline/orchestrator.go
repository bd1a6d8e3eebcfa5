package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/parser"
	"github.com/dgallion1/doctext/internal/pathstore"
	"github.com/dgallion1/doctext/internal/sink"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Orchestrator runs queued extraction jobs on a fixed pool of workers.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	extractor *extract.Extractor
	sinks     *sink.Factory
	ps        *pathstore.Client
	log       *slog.Logger
	cfg       config.Config

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewOrchestrator creates the pipeline. ps may be nil when no pathstore is
// configured.
func NewOrchestrator(cfg config.Config, ex *extract.Extractor, sinks *sink.Factory, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		extractor: ex,
		sinks:     sinks,
		ps:        ps,
		log:       log,
		cfg:       cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(workerCtx)

	o.mu.Lock()
	o.cancel = cancel
	o.group = g
	o.mu.Unlock()

	parsers := parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
	for i := 0; i < o.cfg.WorkerCount; i++ {
		w := NewWorker(o.extractor, o.sinks, parsers, o.log)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case job, ok := <-o.queue:
					if !ok {
						return nil
					}
					w.Process(gctx, job)
				}
			}
		})
	}

	// Job store cleanup.
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	})
}

// Stop gracefully shuts down the pipeline. Queued jobs that no worker has
// picked up are abandoned.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	g := o.group
	o.mu.Unlock()

	if g != nil {
		_ = g.Wait()
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of jobs still tracked.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// PathstoreClient returns the pathstore client for direct use by API handlers.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}
