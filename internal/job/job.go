// Package job provides the Job aggregate for silence-removal runs. It
// includes the Job entity with state machine transitions, a repository
// interface for persistence, and the TrimService use case driving the
// pipeline.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/silentcut/silentcut-api/internal/job/id"
	"github.com/silentcut/silentcut-api/internal/pipeline"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting to start.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the pipeline is processing the job.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job encountered an error during execution.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was cancelled at a checkpoint.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusFailed, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents a single silence-removal run aggregate.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// InputPath is the path to the source video.
	InputPath string
	// OutputPath is the path the trimmed video is written to.
	OutputPath string
	// Options are the pipeline options for this run, immutable once set.
	Options pipeline.Options
	// StagedInput marks an input that was uploaded as raw bytes and staged
	// in the storage workspace; staged files are cleaned up once the job
	// is terminal.
	StagedInput bool
	// Progress is the percentage of completion (0-100).
	Progress int
	// Message is the most recent progress message.
	Message string
	// Error contains any error message if the job failed.
	Error string
	// Result holds the pipeline outcome once the run terminates.
	Result *pipeline.Result
	// PushToS3 indicates whether to upload the trimmed output to S3.
	PushToS3 bool
	// ResultURL is the S3 URL if PushToS3 was true.
	ResultURL string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New() *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusInQueue,
		Options:   pipeline.DefaultOptions(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE
// status. Useful for testing or when the ID is generated externally.
func NewWithID(jobID string) *Job {
	j := New()
	j.ID = jobID
	return j
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// UpdateProgress sets the progress percentage (0-100) and message.
func (j *Job) UpdateProgress(progress int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	j.Message = message
	j.UpdatedAt = time.Now()
}

// SetResult records the pipeline outcome.
func (j *Job) SetResult(res pipeline.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Result = &res
	j.UpdatedAt = time.Now()
}

// SetResultURL records the S3 URL of the uploaded output.
func (j *Job) SetResultURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ResultURL = url
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	clone := &Job{
		ID:          j.ID,
		Status:      j.Status,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		Options:     j.Options,
		StagedInput: j.StagedInput,
		Progress:    j.Progress,
		Message:     j.Message,
		Error:       j.Error,
		PushToS3:    j.PushToS3,
		ResultURL:   j.ResultURL,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.Result != nil {
		res := *j.Result
		clone.Result = &res
	}
	return clone
}
