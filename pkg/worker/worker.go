// Package worker runs enrichment off the request path. The API server
// enqueues extraction batches here so HTTP handlers never block on
// embedding calls.
//
// The pool defaults to a single worker: the stores serialize writes
// externally, and one writer keeps row ids and vector syncs in a
// predictable order.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
)

const (
	// DefaultWorkers is the default worker count.
	DefaultWorkers = 1

	// DefaultQueueSize is the default job queue capacity.
	DefaultQueueSize = 64
)

// ErrQueueFull is returned by Enqueue when the job queue is at capacity.
var ErrQueueFull = errors.New("enrichment queue is full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("enrichment pool is closed")

// Job carries one extraction batch through the queue.
type Job struct {
	Extractions []extraction.Record
	Connections []extraction.Connection
}

// Options configures the pool.
type Options struct {
	// Workers is the number of concurrent workers. Defaults to
	// DefaultWorkers if zero.
	Workers int

	// QueueSize is the job queue capacity. Defaults to DefaultQueueSize
	// if zero.
	QueueSize int
}

// Pool processes enrichment jobs in the background.
type Pool struct {
	enricher *enrich.Enricher
	logger   *zap.Logger
	jobs     chan Job
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool and starts its workers. Workers run until Close.
func NewPool(ctx context.Context, enricher *enrich.Enricher, logger *zap.Logger, opts Options) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	p := &Pool{
		enricher: enricher,
		logger:   logger,
		jobs:     make(chan Job, queueSize),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(ctx)
	}

	return p
}

// Enqueue submits a job without blocking. A full queue rejects the job so
// a slow embedding server backs up into the caller instead of unbounded
// memory.
func (p *Pool) Enqueue(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		p.logger.Error("enrichment queue full, dropping job",
			zap.Int("records", len(job.Extractions)),
			zap.Int("connections", len(job.Connections)),
		)
		return ErrQueueFull
	}
}

// Pending returns the number of queued jobs.
func (p *Pool) Pending() int {
	return len(p.jobs)
}

// Close stops accepting jobs, drains the queue and waits for the workers
// to finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		records := p.enricher.ProcessExtractions(ctx, job.Extractions)
		connections := p.enricher.ProcessConnections(ctx, job.Connections, "extraction")

		p.logger.Info("processed enrichment job",
			zap.Int("added", records.Added+connections.Added),
			zap.Int("skipped", records.Skipped+connections.Skipped),
			zap.Int("errors", records.Errors+connections.Errors),
			zap.Int("sync_failures", records.SyncFailures),
		)
	}
}
