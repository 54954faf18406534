package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/jobs"
)

const defaultWorkers = 5

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// It suits single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.ProcessOrderJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	workers int
	backoff func(retry int) time.Duration
	log     zerolog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBackoff sets the delay before retry number retry (1-based).
func WithBackoff(f func(retry int) time.Duration) Option {
	return func(q *Queue) {
		if f != nil {
			q.backoff = f
		}
	}
}

// WithLogger sets the logger for job state changes the queue cannot return
// to a caller, such as a retry that could not be re-enqueued.
func WithLogger(log zerolog.Logger) Option {
	return func(q *Queue) {
		q.log = log
	}
}

// LinearBackoff waits retry seconds before each retry.
func LinearBackoff(retry int) time.Duration {
	return time.Duration(retry) * time.Second
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishProcessOrder blocks.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		jobChan:   make(chan *jobs.ProcessOrderJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   defaultWorkers,
		backoff:   LinearBackoff,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishProcessOrder implements the Publisher interface.
func (q *Queue) PublishProcessOrder(ctx context.Context, job *jobs.ProcessOrderJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = jobs.DefaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements the Consumer interface.
// The handler is called concurrently, up to the configured worker count.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.ProcessOrderJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	retrying := false
	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying
			retrying = true
		} else {
			job.Status = jobs.JobStatusFailed
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	q.save(ctx, job)

	if retrying {
		retry := *job
		time.AfterFunc(q.backoff(job.RetryCount), func() {
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			if err := q.PublishProcessOrder(ctx, &retry); err != nil {
				q.log.Error().Err(err).
					Str("job_id", retry.JobID).
					Str("source", retry.Source).
					Int("retry", retry.RetryCount).
					Msg("Failed to re-enqueue job for retry")
				q.markFailed(retry.JobID, fmt.Sprintf("retry %d not enqueued: %v", retry.RetryCount, err))
			}
		})
	}
}

func (q *Queue) save(ctx context.Context, job *jobs.ProcessOrderJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job_id", job.JobID).Str("status", string(job.Status)).Msg("Failed to save job state")
	}
}

// markFailed records a terminal failure. It uses a fresh context because the
// worker context is usually canceled by then.
func (q *Queue) markFailed(jobID, msg string) {
	if q.store == nil {
		return
	}
	if err := q.store.UpdateJobStatus(context.Background(), jobID, jobs.JobStatusFailed, msg); err != nil {
		q.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job failed")
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
