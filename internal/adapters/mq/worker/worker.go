// Package worker evaluates queued batch jobs on a fixed pool of goroutines.
// Each job is one independent query; a query itself never runs in parallel.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/duelodds/internal/adapters/mq/queue"
	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/pkg/logger"
	"github.com/okian/duelodds/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Evaluator computes the probability a query asks for.
type Evaluator interface {
	Evaluate(ctx context.Context, q model.Query) (float64, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for evaluating jobs.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, evaluator Evaluator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		evaluator: evaluator,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.NewNop(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process evaluates a single job and delivers its result.
func (w *InMemoryWorker) process(ctx context.Context, job Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.IncWorkerBusy()
	defer metrics.DecWorkerBusy()

	start := time.Now()
	prob, err := w.evaluator.Evaluate(ctx, job.Query)
	metrics.RecordWorkerJobLatency(float64(time.Since(start).Microseconds()) / 1e3)

	if err != nil {
		w.logger.Debug(ctx, "job failed",
			logger.String("jobID", job.ID),
			logger.String("kind", string(job.Query.Kind)),
			logger.Error(err),
		)
	}

	// Reply is buffered by the producer; never block a worker on a slow reader.
	select {
	case job.Reply <- model.Result{QueryID: job.Query.ID, Kind: job.Query.Kind, Probability: prob, Err: err}:
	default:
		w.logger.Warn(ctx, "dropping result: reply channel full", logger.String("jobID", job.ID))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	started bool
}

// NewPool creates a new worker pool. workerCount < 1 selects runtime.NumCPU();
// a nil logger discards output.
func NewPool(workerCount int, q Queue, evaluator Evaluator, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, evaluator,
			WithLogger(log),
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue when it supports it and waits for the workers
// to drain every job already queued. Workers still busy when the timeout
// expires are told to stop and their remaining jobs are abandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			w.shutdownOnce.Do(func() { close(w.shutdown) })
			p.logger.Warn(ctx, "worker did not drain before timeout", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = fmt.Errorf("worker %d did not drain: %w", i, shutdownCtx.Err())
			}
		}
	}
	return firstErr
}
