package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	jobs "github.com/teacurran/village-jobs"
)

func newTestEngine(t *testing.T, reg *jobs.Registry, opts ...jobs.ServiceOption) (*jobs.Service, *jobs.GormStorage) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := jobs.NewGormStorage(db)
	require.NoError(t, store.Migrate(context.Background()), "migrate schema")
	return jobs.NewService(store, reg, opts...), store
}

func runDispatcher(t *testing.T, d *jobs.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestEndToEnd_OrderNotificationSucceeds(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()

	var notified atomic.Value
	reg.MustRegister(jobs.Metadata{Queue: "order-notification", Priority: 10},
		jobs.HandlerFunc(func(ctx context.Context, orderID string) error {
			notified.Store(orderID)
			return nil
		}))

	svc, store := newTestEngine(t, reg)
	d := jobs.NewDispatcher(svc, jobs.Concurrency(4), jobs.PollInterval(20*time.Millisecond))
	runDispatcher(t, d)

	job, err := svc.Enqueue(ctx, "order-notification", "order-123")
	require.NoError(t, err)
	assert.Equal(t, 10, job.Priority, "priority copied from handler metadata")

	assert.Eventually(t, func() bool {
		stored, err := store.GetJob(ctx, job.ID)
		return err == nil && stored != nil && stored.Succeeded()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "order-123", notified.Load())
}

func TestEndToEnd_TerminalFailureSettlesAfterOneAttempt(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()
	reg.MustRegister(jobs.Metadata{Queue: "order-cancellation", Priority: 5},
		jobs.HandlerFunc(func(ctx context.Context, orderID string) error {
			return jobs.Terminal(errors.New("order not found"))
		}))

	svc, store := newTestEngine(t, reg)
	d := jobs.NewDispatcher(svc, jobs.PollInterval(20*time.Millisecond))
	runDispatcher(t, d)

	job, err := svc.Enqueue(ctx, "order-cancellation", "missing-order")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stored, err := store.GetJob(ctx, job.ID)
		return err == nil && stored != nil && stored.Complete
	}, 2*time.Second, 10*time.Millisecond)

	// Give the dispatcher a moment to prove it does not touch the job again.
	time.Sleep(100 * time.Millisecond)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, stored.Complete)
	assert.True(t, stored.CompletedWithFailure)
	assert.Equal(t, 1, stored.Attempts, "terminal failures are never retried")
}

func TestEndToEnd_RecoverableFailureRetriesUntilSuccess(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()

	var attempts atomic.Int32
	reg.MustRegister(jobs.Metadata{Queue: "shipping-rates", Priority: 1},
		jobs.HandlerFunc(func(ctx context.Context, orderID string) error {
			if attempts.Add(1) < 3 {
				return jobs.Recoverable(errors.New("carrier api unavailable"))
			}
			return nil
		}))

	svc, store := newTestEngine(t, reg,
		jobs.WithRetryPolicy(jobs.RetryPolicy{Initial: 10 * time.Millisecond, Multiplier: 2.0}))
	d := jobs.NewDispatcher(svc, jobs.PollInterval(20*time.Millisecond))
	runDispatcher(t, d)

	job, err := svc.Enqueue(ctx, "shipping-rates", "order-55")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stored, err := store.GetJob(ctx, job.ID)
		return err == nil && stored != nil && stored.Succeeded()
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
}

func TestEndToEnd_FutureJobWaitsForRunAt(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()

	var invocations atomic.Int32
	reg.MustRegister(jobs.Metadata{Queue: "order-notification", Priority: 1},
		jobs.HandlerFunc(func(ctx context.Context, orderID string) error {
			invocations.Add(1)
			return nil
		}))

	svc, store := newTestEngine(t, reg)
	d := jobs.NewDispatcher(svc, jobs.PollInterval(20*time.Millisecond))
	runDispatcher(t, d)

	job, err := svc.EnqueueWithDelay(ctx, "order-notification", "order-9", time.Hour)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, stored.Complete)
	assert.False(t, stored.Locked)
	assert.Zero(t, stored.Attempts)
	assert.Zero(t, invocations.Load(), "handler must not run before RunAt")
}

func TestFindReadyToRun_PriorityOrderingAcrossQueues(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()
	reg.MustRegister(jobs.Metadata{Queue: "low", Priority: 5},
		jobs.HandlerFunc(func(ctx context.Context, actorID string) error { return nil }))
	reg.MustRegister(jobs.Metadata{Queue: "high", Priority: 10},
		jobs.HandlerFunc(func(ctx context.Context, actorID string) error { return nil }))

	svc, _ := newTestEngine(t, reg)

	now := time.Now()
	_, err := svc.EnqueueAt(ctx, "low", "order-old", now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = svc.EnqueueAt(ctx, "high", "order-new", now.Add(-time.Hour))
	require.NoError(t, err)

	ready, err := svc.FindReadyToRun(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ready, 2)
	assert.Equal(t, "order-new", ready[0].ActorID, "priority 10 beats priority 5 despite waiting less")
	assert.Equal(t, "order-old", ready[1].ActorID)
}

func TestEnqueue_UnknownQueueFailsSynchronously(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestEngine(t, jobs.NewRegistry())

	_, err := svc.Enqueue(ctx, "never-registered", "order-1")
	assert.ErrorIs(t, err, jobs.ErrUnregisteredQueue)
}

func TestConcurrentClaim_ExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	reg := jobs.NewRegistry()
	reg.MustRegister(jobs.Metadata{Queue: "emails", Priority: 1},
		jobs.HandlerFunc(func(ctx context.Context, actorID string) error { return nil }))

	svc, _ := newTestEngine(t, reg)
	job, err := svc.Enqueue(ctx, "emails", "order-1")
	require.NoError(t, err)

	type result struct {
		job *jobs.Job
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			j, err := svc.Claim(ctx, job.ID)
			results <- result{j, err}
		}()
	}

	var winners int
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		if r.job != nil {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "concurrent claims on one job yield exactly one non-empty result")
}
