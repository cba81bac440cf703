// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/duelodds/internal/adapters/mq/queue"
	workerpool "github.com/okian/duelodds/internal/adapters/mq/worker"
	"github.com/okian/duelodds/internal/domain/memo"
	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/odds"
	"github.com/okian/duelodds/internal/domain/schedule"
	"github.com/okian/duelodds/internal/domain/types"
	"github.com/okian/duelodds/pkg/logger"
	"github.com/okian/duelodds/pkg/metrics"
)

// Service implements the API dependencies for the probability calculator.
type Service struct {
	mu sync.RWMutex

	// Core components
	calc     *odds.Calculator
	memo     memo.Memo
	jobQueue *jobqueue.InMemoryQueue
	pool     *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	memoSize     int
	maxEvents    int
	maxBatchSize int
	maxPoints    int

	// State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMemoSize sets how many results are remembered; 0 disables the memo.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.memoSize = size
		}
	}
}

// WithMaxEvents sets the largest event count a query may enumerate.
func WithMaxEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithMaxBatchSize caps the number of queries accepted by Batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithMaxDistributionPoints caps the distinct totals Distribution may return.
func WithMaxDistributionPoints(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Single queries can be evaluated right away;
// Batch needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1024,
		memoSize:     4096,
		maxEvents:    odds.DefaultMaxEvents,
		maxBatchSize: 256,
		maxPoints:    odds.DefaultMaxDistributionPoints,
		logger:       logger.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.calc = odds.New(
		odds.WithMaxEvents(s.maxEvents),
		odds.WithMaxDistributionPoints(s.maxPoints),
		odds.WithLogger(s.logger.Named("odds")),
	)
	s.memo = memo.NewInMemoryMemo(memo.WithMaxSize(s.memoSize))

	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting probability service...")

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	// Workers outlive the request that started the service.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.logger)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "probability service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("memoSize", s.memoSize),
		logger.Int("maxEvents", s.maxEvents),
	)

	return nil
}

// Stop closes the job queue, waits for queued jobs to drain and shuts the
// workers down. Batches still waiting on abandoned jobs return ErrNotStarted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping probability service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not stop cleanly", logger.Error(err))
	}
	s.cancel()
	close(s.done)

	s.started = false
	s.logger.Info(ctx, "probability service stopped")
}

// MaxEvents returns the configured event ceiling.
func (s *Service) MaxEvents() int { return s.calc.MaxEvents() }

// Evaluate computes one probability query, consulting the memo first.
func (s *Service) Evaluate(ctx context.Context, q model.Query) (float64, error) {
	start := time.Now()
	kind := string(q.Kind)

	sched, err := q.Schedule()
	if err != nil {
		metrics.RecordQueryError(kind, errorReason(err))
		return 0, err
	}
	target := q.Target
	if q.Kind.UsesTieValue() {
		target = sched.TieValue()
	}

	key := memo.Key(kind, sched.Len(), q.Points, q.WinProb, target)
	if prob, ok := s.memo.Get(ctx, key); ok {
		metrics.RecordMemoHit()
		return prob, nil
	}
	metrics.RecordMemoMiss()

	prob, err := s.calc.Probability(ctx, q)
	if err != nil {
		metrics.RecordQueryError(kind, errorReason(err))
		return 0, err
	}

	s.memo.Put(ctx, key, prob)
	metrics.UpdateMemoSize(s.memo.Size())
	metrics.RecordQuery(kind, sched.Kind(), sched.Len())
	metrics.RecordQueryLatency(kind, float64(time.Since(start).Microseconds())/1e3)

	return prob, nil
}

// Report returns the tie value and the tie, win and loss probabilities.
func (s *Service) Report(ctx context.Context, sched schedule.Schedule, p float64) (types.Report, error) {
	start := time.Now()
	r, err := s.calc.Report(ctx, sched, p)
	if err != nil {
		metrics.RecordQueryError("report", errorReason(err))
		return types.Report{}, err
	}
	metrics.RecordQuery("report", sched.Kind(), sched.Len())
	metrics.RecordQueryLatency("report", float64(time.Since(start).Microseconds())/1e3)
	return r, nil
}

// Distribution returns the probability of every reachable total.
func (s *Service) Distribution(ctx context.Context, sched schedule.Schedule, p float64) (types.Distribution, error) {
	start := time.Now()
	d, err := s.calc.Distribution(ctx, sched, p)
	if err != nil {
		metrics.RecordQueryError("distribution", errorReason(err))
		return types.Distribution{}, err
	}
	metrics.RecordQuery("distribution", sched.Kind(), sched.Len())
	metrics.RecordQueryLatency("distribution", float64(time.Since(start).Microseconds())/1e3)
	return d, nil
}

// TieValue returns half of the schedule's total points.
func (s *Service) TieValue(sched schedule.Schedule) float64 {
	return s.calc.TieValue(sched)
}

// Batch evaluates queries on the worker pool and returns one result per
// query, in input order. Per-query failures are carried in Result.Err; the
// returned error covers the batch as a whole.
func (s *Service) Batch(ctx context.Context, queries []model.Query) ([]model.Result, error) {
	if len(queries) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d queries, limit is %d", ErrBatchTooLarge, len(queries), s.maxBatchSize)
	}

	s.mu.RLock()
	q := s.jobQueue
	done := s.done
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	metrics.RecordBatchSize(len(queries))
	replies := make([]chan model.Result, len(queries))
	for i, query := range queries {
		reply := make(chan model.Result, 1)
		job := jobqueue.Job{
			ID:         uuid.NewString(),
			Query:      query,
			Reply:      reply,
			EnqueuedAt: time.Now(),
		}
		if !q.Enqueue(ctx, job) {
			if q.IsClosed() {
				return nil, ErrNotStarted
			}
			s.logger.Warn(ctx, "batch rejected: queue full",
				logger.Int("queued", i),
				logger.Int("batch", len(queries)),
			)
			return nil, fmt.Errorf("%w: %d of %d queries queued", jobqueue.ErrFull, i, len(queries))
		}
		replies[i] = reply
	}
	metrics.UpdateQueueSize(q.Len(ctx))

	results := make([]model.Result, len(queries))
	for i, reply := range replies {
		select {
		case r := <-reply:
			results[i] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
			select {
			case r := <-reply:
				results[i] = r
			default:
				return nil, fmt.Errorf("%w: stopped with %d of %d results pending", ErrNotStarted, len(queries)-i, len(queries))
			}
		}
	}
	return results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"memoSize":     s.memoSize,
		"maxEvents":    s.calc.MaxEvents(),
		"maxBatchSize": s.maxBatchSize,
		"maxPoints":    s.calc.MaxDistributionPoints(),
		"memoEntries":  s.memo.Size(),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateMemoSize(s.memo.Size())
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// errorReason labels an error for metrics.
func errorReason(err error) string {
	switch {
	case errors.Is(err, odds.ErrEventLimit):
		return "event_limit"
	case errors.Is(err, odds.ErrDistributionLimit):
		return "distribution_limit"
	case errors.Is(err, odds.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
