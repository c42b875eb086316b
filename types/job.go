package types

import (
	"context"

	"github.com/google/uuid"
)

// JobFunc is the body of a unit of work. The context carries the lane's
// per-job deadline and is cancelled when the lane is torn down.
type JobFunc func(ctx context.Context) error

// Job is an immutable unit of work consumed exactly once by a lane.
type Job struct {
	// ID correlates log lines of one execution.
	ID string

	// Name identifies the kind of job (e.g., "emission-update").
	Name string

	// Fn is the work itself.
	Fn JobFunc
}

// NewJob creates a job with a fresh random ID.
//
// Parameters:
//   - name: Job kind, used as a log and metrics label
//   - fn: Work to execute
//
// Returns:
//   - Job: Ready-to-submit job
func NewJob(name string, fn JobFunc) Job {
	return Job{ID: uuid.NewString(), Name: name, Fn: fn}
}

// JobFactory builds a fresh Job for every trigger firing.
type JobFactory func() Job

// Submitter accepts jobs without blocking. Lanes implement it.
type Submitter interface {
	// Submit enqueues a job. It never blocks and never drops a job; the only
	// failure is ErrLaneStopped after shutdown was requested.
	Submit(job Job) error
}
