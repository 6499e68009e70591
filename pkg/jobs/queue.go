package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotRunning is returned by Enqueue before Start and after Stop.
var ErrNotRunning = errors.New("queue not running")

// ErrFull is returned by Enqueue when the buffer is exhausted.
var ErrFull = errors.New("queue full")

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; the job is dropped at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Job wraps a typed payload with delivery bookkeeping.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler[T any] func(context.Context, Job[T]) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type queueState int

const (
	stateIdle queueState = iota
	stateRunning
	stateStopped
)

// Queue is an in-memory, fire-and-forget dispatcher backed by goroutines.
// A failed job is retried after RetryDelay up to MaxRetries times unless the
// handler marked the error Permanent. After that, or when the queue stops
// with a retry still pending, it is handed to the drop hook.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	onDrop  func(Job[T], error)

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	mu        sync.RWMutex
	state     queueState
	jobs      chan Job[T]
	quit      chan struct{}
	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
	retries   sync.WaitGroup
}

// NewQueue builds a queue around handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job[T], cfg.BufferSize),
		quit:       make(chan struct{}),
	}
}

// OnDrop registers fn for jobs that will never be delivered. It must be
// called before Start.
func (q *Queue[T]) OnDrop(fn func(Job[T], error)) {
	q.onDrop = fn
}

// Start launches the workers. Handlers receive a context derived from ctx.
// A queue runs at most once; later calls are no-ops.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.runCtx, q.cancelRun = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop refuses new jobs, abandons pending retries and lets the workers
// finish what is already buffered. If ctx ends first, in-flight handlers
// see their context cancelled and the remaining buffer is discarded.
func (q *Queue[T]) Stop(ctx context.Context) {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateStopped
	close(q.quit)
	q.mu.Unlock()

	q.retries.Wait()
	close(q.jobs)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("queue drain interrupted", zap.Error(ctx.Err()))
		q.cancelRun()
		<-done
	}
	q.cancelRun()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a payload without blocking; a full buffer is an error.
func (q *Queue[T]) Enqueue(payload T) error {
	return q.push(Job[T]{ID: uuid.NewString(), Payload: payload, Enqueued: time.Now().UTC()})
}

func (q *Queue[T]) push(job Job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrFull)
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		if q.runCtx.Err() != nil {
			q.drop(job, q.runCtx.Err())
			continue
		}
		if err := q.handler(q.runCtx, job); err != nil {
			q.handleFailure(job, err)
		}
	}
}

func (q *Queue[T]) handleFailure(job Job[T], err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries || IsPermanent(err) {
		q.drop(job, err)
		return
	}

	q.mu.RLock()
	running := q.state == stateRunning
	if running {
		q.retries.Add(1)
	}
	q.mu.RUnlock()
	if !running {
		q.drop(job, err)
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))

	go func(j Job[T]) {
		defer q.retries.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.quit:
			q.drop(j, fmt.Errorf("%s: %w before retry", q.name, ErrNotRunning))
		case <-timer.C:
			if err := q.push(j); err != nil {
				q.drop(j, err)
			}
		}
	}(job)
}

func (q *Queue[T]) drop(job Job[T], err error) {
	q.logger.Error("job dropped", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
	if q.onDrop != nil {
		q.onDrop(job, err)
	}
}
