package core

import (
	"context"
	"time"
)

// Job represents a persisted unit of deferred work.
//
// A job is eligible for claiming iff Complete is false, Locked is false,
// and RunAt is not in the future. Claiming is atomic at the storage layer;
// exactly one concurrent claim per job can succeed.
type Job struct {
	ID       string `gorm:"primaryKey;size:36"`
	ActorID  string `gorm:"index;size:255;not null"`
	Queue    string `gorm:"index;size:255;not null"`
	Priority int    `gorm:"index;default:0"`

	// RunAt is the earliest time the job may be claimed. Retries only ever
	// push it forward.
	RunAt time.Time `gorm:"index;not null"`

	Locked   bool       `gorm:"index;default:false"`
	LockedAt *time.Time `gorm:"index"`

	Complete             bool `gorm:"index;default:false"`
	CompletedAt          *time.Time
	CompletedWithFailure bool `gorm:"default:false"`

	// Attempts counts handler invocations. It is incremented inside the
	// atomic claim update, never on a rejected claim.
	Attempts int `gorm:"default:0"`

	LastError string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ReadyToRun reports whether the job is eligible for claiming at the given time.
func (j *Job) ReadyToRun(now time.Time) bool {
	return !j.Complete && !j.Locked && !j.RunAt.After(now)
}

// Succeeded reports whether the job finished without a terminal failure.
func (j *Job) Succeeded() bool {
	return j.Complete && !j.CompletedWithFailure
}

// Metadata is the static declaration a handler makes at registration time.
// Priority is copied onto every job enqueued for the handler's queue;
// higher values are served first.
type Metadata struct {
	Queue    string
	Priority int
}

// Handler is the capability that performs the work for a queue.
//
// A nil return marks the job complete. A TerminalError marks it
// complete-with-failure. Any other error reschedules the job with backoff.
type Handler interface {
	Execute(ctx context.Context, actorID string) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, actorID string) error

// Execute calls fn(ctx, actorID).
func (fn HandlerFunc) Execute(ctx context.Context, actorID string) error {
	return fn(ctx, actorID)
}
