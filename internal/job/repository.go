package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when no trim job exists under the given ID.
var ErrJobNotFound = errors.New("job not found")

// Repository persists trim jobs. The service writes through it on every
// status and progress change, so reads always see the latest snapshot.
type Repository interface {
	// Save stores or replaces the job under its ID.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a trim job by ID.
	// Returns ErrJobNotFound if no job exists under it.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all trim jobs, newest first by creation time.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a trim job.
	// Returns ErrJobNotFound if no job exists under the ID.
	Delete(ctx context.Context, id string) error
}
