package core

import (
	"context"
	"time"
)

// Starter is the interface for long-running components such as dispatchers.
type Starter interface {
	Start(ctx context.Context) error
}

// Storage defines the persistence layer for jobs. The store is the only
// coordination point between workers; every method that transitions job
// state must be a single atomic conditional update.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Create persists a new job record.
	Create(ctx context.Context, job *Job) error

	// Claim atomically locks the job iff it is unlocked, incomplete, and
	// its RunAt has arrived, incrementing Attempts as part of the same
	// update. It returns (nil, nil) when the job does not exist or is not
	// eligible. Exactly one concurrent Claim per job can succeed.
	Claim(ctx context.Context, jobID string) (*Job, error)

	// MarkSucceeded records a successful outcome on a claimed job.
	// Returns ErrNotClaimed if the job is not currently locked.
	MarkSucceeded(ctx context.Context, jobID string) error

	// MarkFailed records a terminal failure on a claimed job.
	// Returns ErrNotClaimed if the job is not currently locked.
	MarkFailed(ctx context.Context, jobID string, errMsg string) error

	// RecordRetry releases the lock and pushes RunAt forward after a
	// recoverable failure. Returns ErrNotClaimed if the job is not
	// currently locked.
	RecordRetry(ctx context.Context, jobID string, runAt time.Time, errMsg string) error

	// FindReadyToRun returns up to limit incomplete jobs whose RunAt has
	// arrived, ordered by priority descending then RunAt ascending.
	FindReadyToRun(ctx context.Context, limit int) ([]*Job, error)

	// GetJob retrieves a job by ID, or (nil, nil) if it does not exist.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ReleaseStaleLocks unlocks incomplete jobs whose claim is older than
	// olderThan, returning the number of jobs reclaimed.
	ReleaseStaleLocks(ctx context.Context, olderThan time.Duration) (int64, error)
}
