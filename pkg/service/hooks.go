package service

import (
	"context"

	"github.com/teacurran/village-jobs/pkg/core"
)

// OnJobSuccess registers a callback for when a job completes successfully.
func (s *Service) OnJobSuccess(fn func(context.Context, *core.Job)) {
	s.mu.Lock()
	s.onSuccess = append(s.onSuccess, fn)
	s.mu.Unlock()
}

// OnJobFailure registers a callback for when a job fails terminally.
func (s *Service) OnJobFailure(fn func(context.Context, *core.Job, error)) {
	s.mu.Lock()
	s.onFailure = append(s.onFailure, fn)
	s.mu.Unlock()
}

// OnJobRetry registers a callback for when a job is rescheduled.
func (s *Service) OnJobRetry(fn func(context.Context, *core.Job, int, error)) {
	s.mu.Lock()
	s.onRetry = append(s.onRetry, fn)
	s.mu.Unlock()
}

func (s *Service) callSuccessHooks(ctx context.Context, job *core.Job) {
	s.mu.RLock()
	hooks := make([]func(context.Context, *core.Job), len(s.onSuccess))
	copy(hooks, s.onSuccess)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job)
	}
}

func (s *Service) callFailureHooks(ctx context.Context, job *core.Job, err error) {
	s.mu.RLock()
	hooks := make([]func(context.Context, *core.Job, error), len(s.onFailure))
	copy(hooks, s.onFailure)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job, err)
	}
}

func (s *Service) callRetryHooks(ctx context.Context, job *core.Job, attempt int, err error) {
	s.mu.RLock()
	hooks := make([]func(context.Context, *core.Job, int, error), len(s.onRetry))
	copy(hooks, s.onRetry)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job, attempt, err)
	}
}

// Events returns a channel for receiving job lifecycle events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (s *Service) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	s.mu.Lock()
	s.eventSubs = append(s.eventSubs, ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed — callers must stop reading before calling
// Unsubscribe. After Unsubscribe returns, no further events will be sent.
func (s *Service) Unsubscribe(ch <-chan core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.eventSubs {
		if sub == ch {
			s.eventSubs = append(s.eventSubs[:i], s.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit delivers an event to all subscribers. Slow subscribers are skipped
// rather than blocked on.
func (s *Service) Emit(e core.Event) {
	s.mu.RLock()
	subs := make([]chan core.Event, len(s.eventSubs))
	copy(subs, s.eventSubs)
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}
