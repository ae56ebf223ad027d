package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/family-budget/internal/parser"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeParseInput represents a smart-input parse job.
	JobTypeParseInput JobType = "parse_input"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ParseInputJob carries one smart-input line through the background parser so
// the completion call never blocks a request thread. Result holds the
// normalized command or the error result once the job completes; a failed
// parse is never retried automatically — the user edits and resubmits.
type ParseInputJob struct {
	JobID string `json:"job_id"`

	// Text is the raw user input to parse.
	Text string `json:"text"`

	// KnownCategories guides category inference; empty means the default
	// vocabulary.
	KnownCategories []string `json:"known_categories,omitempty"`

	// UserID is the requesting profile, recorded for audit.
	UserID string `json:"user_id,omitempty"`

	// Result is set when Status is completed. A parse-level failure is a
	// completed job whose Result carries the error.
	Result *parser.Result `json:"result,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds infrastructure failures (queue shutdown, handler fault);
	// parse-level failures land in Result.Err instead.
	Error string `json:"error,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ParseInputJob) GetID() string        { return j.JobID }
func (j *ParseInputJob) GetType() JobType     { return JobTypeParseInput }
func (j *ParseInputJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations.
type Publisher interface {
	// PublishParseInput publishes a smart-input parse job.
	PublishParseInput(ctx context.Context, job *ParseInputJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue. The handler function is
	// called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	SaveJob(ctx context.Context, job *ParseInputJob) error
	GetJob(ctx context.Context, jobID string) (*ParseInputJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ParseInputJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// UserID filters jobs by requesting profile.
	UserID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
