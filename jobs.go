// Package jobs provides a durable background-job engine: persistent
// enqueueing of deferred work, atomic claiming so a job is executed by at
// most one worker at a time, handler dispatch, and a retry/backoff state
// machine for failure recovery.
//
// This is the main package users should import. It re-exports the public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create storage, registry, and service
//	db, _ := gorm.Open(sqlite.Open("jobs.db"), &gorm.Config{})
//	store := jobs.NewGormStorage(db)
//	store.Migrate(context.Background())
//
//	reg := jobs.NewRegistry()
//	reg.MustRegister(jobs.Metadata{Queue: "order-notification", Priority: 10},
//	    jobs.HandlerFunc(func(ctx context.Context, orderID string) error {
//	        return notifyCustomer(orderID)
//	    }))
//
//	svc := jobs.NewService(store, reg)
//
//	// Enqueue work
//	svc.Enqueue(ctx, "order-notification", "order-123")
//
//	// Run the dispatcher
//	d := jobs.NewDispatcher(svc, jobs.Concurrency(8))
//	d.Start(ctx)
package jobs

import (
	"time"

	"gorm.io/gorm"

	"github.com/teacurran/village-jobs/pkg/core"
	"github.com/teacurran/village-jobs/pkg/dispatch"
	"github.com/teacurran/village-jobs/pkg/registry"
	"github.com/teacurran/village-jobs/pkg/retry"
	"github.com/teacurran/village-jobs/pkg/schedule"
	"github.com/teacurran/village-jobs/pkg/security"
	"github.com/teacurran/village-jobs/pkg/service"
	"github.com/teacurran/village-jobs/pkg/storage"
)

// Type aliases re-exported from pkg/ packages
type (
	// Job represents a persisted unit of deferred work.
	Job = core.Job

	// Metadata is the static declaration a handler makes at registration time.
	Metadata = core.Metadata

	// Handler is the capability that performs the work for a queue.
	Handler = core.Handler

	// HandlerFunc adapts a function to the Handler interface.
	HandlerFunc = core.HandlerFunc

	// Storage defines the persistence layer for jobs.
	Storage = core.Storage

	// Event is the interface for all job lifecycle events.
	Event = core.Event

	// JobEnqueued is emitted after a job is persisted.
	JobEnqueued = core.JobEnqueued

	// JobStarted is emitted when a worker claims a job.
	JobStarted = core.JobStarted

	// JobSucceeded is emitted when a job completes without failure.
	JobSucceeded = core.JobSucceeded

	// JobFailed is emitted when a job is marked complete-with-failure.
	JobFailed = core.JobFailed

	// JobRetrying is emitted when a recoverable failure reschedules a job.
	JobRetrying = core.JobRetrying

	// TerminalError indicates a handler failure that must not be retried.
	TerminalError = core.TerminalError

	// RecoverableError indicates a handler failure that should be retried.
	RecoverableError = core.RecoverableError

	// Registry maps queue names to handlers and their metadata.
	Registry = registry.Registry

	// Service orchestrates enqueue, claim, dispatch, and outcome recording.
	Service = service.Service

	// ServiceOption configures a Service.
	ServiceOption = service.Option

	// ScheduledJob holds configuration for a recurring enqueue.
	ScheduledJob = service.ScheduledJob

	// RetryPolicy holds backoff configuration for recoverable failures.
	RetryPolicy = retry.Policy

	// Dispatcher runs the notification consumers and the poller.
	Dispatcher = dispatch.Dispatcher

	// DispatcherOption configures a Dispatcher.
	DispatcherOption = dispatch.Option

	// Schedule defines when a recurring job should run next.
	Schedule = schedule.Schedule

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// PoolOption configures database connection pool settings.
	PoolOption = storage.PoolOption
)

// Error variables
var (
	ErrUnregisteredQueue = core.ErrUnregisteredQueue
	ErrDuplicateQueue    = core.ErrDuplicateQueue
	ErrInvalidQueueName  = core.ErrInvalidQueueName
	ErrQueueNameTooLong  = core.ErrQueueNameTooLong
	ErrInvalidActorID    = core.ErrInvalidActorID
	ErrActorIDTooLong    = core.ErrActorIDTooLong
	ErrNotClaimed        = core.ErrNotClaimed
)

// Security limits
const (
	MaxQueueNameLength    = security.MaxQueueNameLength
	MaxActorIDLength      = security.MaxActorIDLength
	MaxErrorMessageLength = security.MaxErrorMessageLength
	MaxConcurrency        = security.MaxConcurrency
)

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return registry.New()
}

// NewService creates a Service backed by the given storage and registry.
func NewService(s Storage, r *Registry, opts ...ServiceOption) *Service {
	return service.New(s, r, opts...)
}

// NewDispatcher creates a Dispatcher for the service and installs itself as
// the service's enqueue notifier.
func NewDispatcher(svc *Service, opts ...DispatcherOption) *Dispatcher {
	return dispatch.New(svc, opts...)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewGormStorageWithPool creates a GORM-backed storage with connection
// pooling configured.
func NewGormStorageWithPool(db *gorm.DB, opts ...PoolOption) (*GormStorage, error) {
	return storage.NewGormStorageWithPool(db, opts...)
}

// DefaultRetryPolicy returns the default backoff policy.
func DefaultRetryPolicy() RetryPolicy {
	return retry.DefaultPolicy()
}

// Terminal wraps an error to indicate the job must not be retried.
func Terminal(err error) error {
	return core.Terminal(err)
}

// Recoverable wraps an error to indicate the job should be retried.
func Recoverable(err error) error {
	return core.Recoverable(err)
}

// RetryAfter wraps an error to indicate the job should be retried after d.
func RetryAfter(d time.Duration, err error) error {
	return core.RetryAfter(d, err)
}

// ValidateQueueName validates a queue name.
func ValidateQueueName(name string) error {
	return security.ValidateQueueName(name)
}

// ValidateActorID validates an actor identifier.
func ValidateActorID(actorID string) error {
	return security.ValidateActorID(actorID)
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}

// Service option functions

// WithRetryPolicy sets the backoff policy used for recoverable failures.
func WithRetryPolicy(p RetryPolicy) ServiceOption {
	return service.WithRetryPolicy(p)
}

// Dispatcher option functions

// Concurrency sets the number of dispatcher consumer goroutines.
func Concurrency(n int) DispatcherOption {
	return dispatch.Concurrency(n)
}

// PollInterval sets how often the poller scans for eligible jobs.
func PollInterval(d time.Duration) DispatcherOption {
	return dispatch.PollInterval(d)
}

// PollBatch sets the maximum number of jobs fetched per poll.
func PollBatch(n int) DispatcherOption {
	return dispatch.PollBatch(n)
}

// ReclaimStaleLocks enables the stale-lock sweeper for claims older than d.
func ReclaimStaleLocks(d time.Duration) DispatcherOption {
	return dispatch.ReclaimStaleLocks(d)
}

// WithScheduler enables the recurring-schedule loop.
func WithScheduler(enabled bool) DispatcherOption {
	return dispatch.WithScheduler(enabled)
}

// Pool option functions

// MaxOpenConns sets the maximum number of open database connections.
func MaxOpenConns(n int) PoolOption {
	return storage.MaxOpenConns(n)
}

// MaxIdleConns sets the maximum number of idle database connections.
func MaxIdleConns(n int) PoolOption {
	return storage.MaxIdleConns(n)
}

// ConnMaxLifetime sets the maximum database connection lifetime.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return storage.ConnMaxLifetime(d)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a standard 5-field cron expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}
