package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/po-agents/internal/pipeline"
)

// ErrJobNotFound is returned by JobStore lookups for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueClosed is returned when publishing to a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessOrder runs the order pipeline for one document.
	JobTypeProcessOrder JobType = "process_order"
)

// DefaultMaxRetries is applied when a job is published without MaxRetries.
const DefaultMaxRetries = 3

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ProcessOrderJob represents a job to extract and evaluate one purchase
// order document.
type ProcessOrderJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Source is the gs:// URI or local path of the order document.
	Source string `json:"source"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`

	// Result is set by the handler when the job completes.
	Result *pipeline.Report `json:"result,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ProcessOrderJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ProcessOrderJob) GetType() JobType {
	return JobTypeProcessOrder
}

// GetStatus implements the Job interface.
func (j *ProcessOrderJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishProcessOrder publishes an order processing job.
	PublishProcessOrder(ctx context.Context, job *ProcessOrderJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ProcessOrderJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ProcessOrderJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessOrderJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Source filters jobs by document source.
	Source string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

// NewProcessOrderHandler adapts pipeline.ProcessOrder to a JobHandler. The
// report is stored on the job for the queue to persist.
func NewProcessOrderHandler(deps pipeline.Deps) JobHandler {
	return func(ctx context.Context, job Job) error {
		poJob, ok := job.(*ProcessOrderJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log := deps.Log.With().Str("job_id", poJob.JobID).Str("source", poJob.Source).Logger()
		log.Info().Int("retry", poJob.RetryCount).Msg("Processing order job")

		report, err := pipeline.ProcessOrder(ctx, deps, poJob.Source)
		if err != nil {
			log.Error().Err(err).Msg("Order pipeline failed")
			return err
		}
		poJob.Result = report

		log.Info().
			Str("po_number", report.Approval.PONumber).
			Bool("approved", report.Approval.IsApproved).
			Msg("Order job completed")
		return nil
	}
}
