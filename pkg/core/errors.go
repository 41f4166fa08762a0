package core

import (
	"errors"
	"fmt"
	"time"
)

// Validation and state errors
var (
	ErrUnregisteredQueue = errors.New("jobs: no handler registered for queue")
	ErrDuplicateQueue    = errors.New("jobs: handler already registered for queue")
	ErrInvalidQueueName  = errors.New("jobs: invalid queue name")
	ErrQueueNameTooLong  = errors.New("jobs: queue name too long")
	ErrInvalidActorID    = errors.New("jobs: invalid actor id")
	ErrActorIDTooLong    = errors.New("jobs: actor id too long")
	ErrNotClaimed        = errors.New("jobs: job is not claimed")
)

// TerminalError indicates a handler failure that must not be retried.
// The job is marked complete-with-failure.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal: %v", e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// Terminal wraps an error to indicate the job must not be retried.
func Terminal(err error) error {
	return &TerminalError{Err: err}
}

// IsTerminal reports whether err carries a TerminalError anywhere in its chain.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}

// RecoverableError indicates a handler failure that should be retried,
// optionally after a handler-chosen delay instead of the policy backoff.
type RecoverableError struct {
	Err   error
	Delay time.Duration
}

func (e *RecoverableError) Error() string {
	if e.Delay > 0 {
		return fmt.Sprintf("recoverable (retry after %v): %v", e.Delay, e.Err)
	}
	return fmt.Sprintf("recoverable: %v", e.Err)
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// Recoverable wraps an error to indicate the job should be retried.
// Unwrapped errors are treated as recoverable too; the wrapper exists for
// explicit classification and for carrying a delay hint.
func Recoverable(err error) error {
	return &RecoverableError{Err: err}
}

// RetryAfter wraps an error to indicate the job should be retried after d,
// overriding the configured backoff for this attempt.
func RetryAfter(d time.Duration, err error) error {
	return &RecoverableError{Err: err, Delay: d}
}
