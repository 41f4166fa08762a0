package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teacurran/village-jobs/pkg/core"
	"github.com/teacurran/village-jobs/pkg/registry"
	"github.com/teacurran/village-jobs/pkg/retry"
	"github.com/teacurran/village-jobs/pkg/schedule"
	"github.com/teacurran/village-jobs/pkg/security"
)

// Service coordinates enqueueing, claiming, handler dispatch, and outcome
// recording against a shared durable store. Handler failures never escape
// Process as errors; they become state transitions on the job row. Only
// storage failures are returned.
type Service struct {
	storage  core.Storage
	registry *registry.Registry
	policy   retry.Policy
	logger   *slog.Logger

	mu        sync.RWMutex
	notify    func(jobID string)
	scheduled map[string]*ScheduledJob

	// Hooks
	onSuccess []func(context.Context, *core.Job)
	onFailure []func(context.Context, *core.Job, error)
	onRetry   []func(context.Context, *core.Job, int, error)

	// Event stream
	eventSubs []chan core.Event
}

// ScheduledJob holds configuration for a recurring enqueue.
type ScheduledJob struct {
	Name     string
	Queue    string
	ActorID  string
	Schedule schedule.Schedule
}

// New creates a Service backed by the given storage and handler registry.
func New(s core.Storage, r *registry.Registry, opts ...Option) *Service {
	svc := &Service{
		storage:  s,
		registry: r,
		policy:   retry.DefaultPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt.Apply(svc)
	}
	return svc
}

// Storage returns the underlying storage.
func (s *Service) Storage() core.Storage {
	return s.storage
}

// Registry returns the handler registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// SetNotifier installs the dispatch notification callback invoked after each
// successful enqueue. The callback must not block; dispatchers install a
// channel send with a drop-when-full fallback. Intended to be called once
// during startup wiring.
func (s *Service) SetNotifier(fn func(jobID string)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

func (s *Service) notifier() func(jobID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notify
}

// Enqueue persists a job that is eligible to run immediately.
// The priority is copied from the metadata the queue's handler declared at
// registration. Enqueueing against an unregistered queue fails before
// anything is persisted.
func (s *Service) Enqueue(ctx context.Context, queue, actorID string) (*core.Job, error) {
	return s.EnqueueAt(ctx, queue, actorID, time.Now())
}

// EnqueueWithDelay persists a job that becomes eligible after the delay.
func (s *Service) EnqueueWithDelay(ctx context.Context, queue, actorID string, delay time.Duration) (*core.Job, error) {
	return s.EnqueueAt(ctx, queue, actorID, time.Now().Add(delay))
}

// EnqueueAt persists a job that becomes eligible at runAt.
//
// The returned job is the persisted record; execution is asynchronous and
// may race with the caller's subsequent reads.
func (s *Service) EnqueueAt(ctx context.Context, queue, actorID string, runAt time.Time) (*core.Job, error) {
	meta, ok := s.registry.Metadata(queue)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnregisteredQueue, queue)
	}
	if err := security.ValidateActorID(actorID); err != nil {
		return nil, err
	}

	job := &core.Job{
		ID:       uuid.New().String(),
		ActorID:  actorID,
		Queue:    meta.Queue,
		Priority: meta.Priority,
		RunAt:    runAt,
	}

	if err := s.storage.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("jobs: failed to enqueue: %w", err)
	}

	s.Emit(&core.JobEnqueued{Job: job, Timestamp: time.Now()})

	if notify := s.notifier(); notify != nil {
		notify(job.ID)
	}

	return job, nil
}

// Claim attempts to take exclusive ownership of the job. It returns
// (nil, nil) when the job does not exist, is already locked, is already
// complete, or its RunAt has not arrived. A non-nil job means this caller
// holds the only claim.
func (s *Service) Claim(ctx context.Context, jobID string) (*core.Job, error) {
	return s.storage.Claim(ctx, jobID)
}

// FindReadyToRun returns up to limit eligible jobs, highest priority first,
// longest-waiting first within a priority. Used by the dispatcher's poller.
func (s *Service) FindReadyToRun(ctx context.Context, limit int) ([]*core.Job, error) {
	return s.storage.FindReadyToRun(ctx, limit)
}

// Process claims the job and, if the claim succeeds, runs its handler and
// records the outcome. A failed claim is a silent no-op: another worker won
// the race or the job is not yet eligible.
func (s *Service) Process(ctx context.Context, jobID string) error {
	job, err := s.storage.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	start := time.Now()
	s.Emit(&core.JobStarted{Job: job, Timestamp: start})

	execErr := s.execute(ctx, job)
	if execErr == nil {
		if err := s.storage.MarkSucceeded(ctx, job.ID); err != nil {
			return err
		}
		s.logger.Debug("job succeeded", "job_id", job.ID, "queue", job.Queue, "attempts", job.Attempts)
		s.callSuccessHooks(ctx, job)
		s.Emit(&core.JobSucceeded{Job: job, Duration: time.Since(start), Timestamp: time.Now()})
		return nil
	}

	return s.recordFailure(ctx, job, execErr)
}

// execute looks up the handler and invokes it, converting panics into
// recoverable errors.
func (s *Service) execute(ctx context.Context, job *core.Job) (err error) {
	h, ok := s.registry.Handler(job.Queue)
	if !ok {
		// Enqueue validates registration, so a miss here means the process
		// was started with a different handler set. Retrying cannot help.
		return core.Terminal(fmt.Errorf("%w: %q", core.ErrUnregisteredQueue, job.Queue))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return h.Execute(ctx, job.ActorID)
}

func (s *Service) recordFailure(ctx context.Context, job *core.Job, execErr error) error {
	if core.IsTerminal(execErr) || s.policy.Exhausted(job.Attempts) {
		if err := s.storage.MarkFailed(ctx, job.ID, execErr.Error()); err != nil {
			return err
		}
		s.logger.Warn("job failed permanently",
			"job_id", job.ID, "queue", job.Queue, "attempts", job.Attempts, "error", execErr)
		s.callFailureHooks(ctx, job, execErr)
		s.Emit(&core.JobFailed{Job: job, Error: execErr, Timestamp: time.Now()})
		return nil
	}

	now := time.Now()
	nextRunAt := s.policy.NextRetryTime(now, job.Attempts)

	// A handler may override the backoff with an explicit delay.
	var recoverable *core.RecoverableError
	if errors.As(execErr, &recoverable) && recoverable.Delay > 0 {
		nextRunAt = now.Add(recoverable.Delay)
	}

	if err := s.storage.RecordRetry(ctx, job.ID, nextRunAt, execErr.Error()); err != nil {
		return err
	}
	s.logger.Info("job rescheduled",
		"job_id", job.ID, "queue", job.Queue, "attempt", job.Attempts, "next_run_at", nextRunAt, "error", execErr)
	s.callRetryHooks(ctx, job, job.Attempts, execErr)
	s.Emit(&core.JobRetrying{Job: job, Attempt: job.Attempts, Error: execErr, NextRunAt: nextRunAt, Timestamp: time.Now()})
	return nil
}

// Schedule registers a recurring enqueue under the given name. The queue
// must have a registered handler; the dispatcher enqueues a fresh job each
// time the schedule fires.
func (s *Service) Schedule(name, queue, actorID string, sched schedule.Schedule) error {
	if _, ok := s.registry.Metadata(queue); !ok {
		return fmt.Errorf("%w: %q", core.ErrUnregisteredQueue, queue)
	}
	if err := security.ValidateActorID(actorID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduled == nil {
		s.scheduled = make(map[string]*ScheduledJob)
	}
	s.scheduled[name] = &ScheduledJob{
		Name:     name,
		Queue:    queue,
		ActorID:  actorID,
		Schedule: sched,
	}
	return nil
}

// ScheduledJobs returns a snapshot of the registered recurring enqueues.
func (s *Service) ScheduledJobs() map[string]*ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*ScheduledJob, len(s.scheduled))
	for name, sj := range s.scheduled {
		out[name] = sj
	}
	return out
}
