package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teacurran/village-jobs/pkg/service"
)

// Dispatcher triggers job processing. Enqueues publish a job ID to the
// notification channel for near-immediate processing; a periodic poller
// independently scans the store so that jobs survive dropped notifications
// and process restarts.
type Dispatcher struct {
	service       *service.Service
	config        Config
	logger        *slog.Logger
	notifications chan string
	wg            sync.WaitGroup
}

// New creates a Dispatcher for the given service and installs itself as the
// service's enqueue notifier.
func New(svc *service.Service, opts ...Option) *Dispatcher {
	config := DefaultConfig()
	for _, opt := range opts {
		opt.Apply(&config)
	}

	d := &Dispatcher{
		service:       svc,
		config:        config,
		logger:        slog.Default(),
		notifications: make(chan string, config.BufferSize),
	}
	svc.SetNotifier(d.Notify)
	return d
}

// SetLogger replaces the dispatcher's logger. Call before Start.
func (d *Dispatcher) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

// Notify publishes a dispatch notification for the job. It never blocks:
// when the channel is full the notification is dropped and the poller
// provides liveness.
func (d *Dispatcher) Notify(jobID string) {
	select {
	case d.notifications <- jobID:
	default:
		d.logger.Debug("notification buffer full, deferring to poller", "job_id", jobID)
	}
}

// Start runs the consumer pool, the poller, and any optional loops.
// It blocks until the context is cancelled, then waits for in-flight
// processing to finish.
func (d *Dispatcher) Start(ctx context.Context) error {
	for i := 0; i < d.config.Concurrency; i++ {
		d.wg.Add(1)
		go d.consumeLoop(ctx)
	}

	d.wg.Add(1)
	go d.pollLoop(ctx)

	if d.config.ReclaimAfter > 0 {
		d.wg.Add(1)
		go d.reclaimLoop(ctx)
	}

	if d.config.EnableScheduler {
		d.wg.Add(1)
		go d.scheduleLoop(ctx)
	}

	<-ctx.Done()
	d.wg.Wait()
	return ctx.Err()
}

func (d *Dispatcher) consumeLoop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-d.notifications:
			d.process(ctx, jobID)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, jobID string) {
	if err := d.service.Process(ctx, jobID); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			d.logger.Error("failed to process job", "job_id", jobID, "error", err)
		}
	}
}

// pollLoop periodically scans the store for eligible jobs and feeds them to
// the consumer pool. The claim inside Process rejects anything another
// worker got to first, so over-delivery here is harmless.
func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs, err := d.service.FindReadyToRun(ctx, d.config.PollBatch)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					d.logger.Error("poll failed", "error", err)
				}
				continue
			}
			for _, job := range jobs {
				select {
				case d.notifications <- job.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// reclaimLoop unlocks jobs whose claim outlived ReclaimAfter, recovering
// work orphaned by crashed workers.
func (d *Dispatcher) reclaimLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.service.Storage().ReleaseStaleLocks(ctx, d.config.ReclaimAfter)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					d.logger.Error("stale lock sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				d.logger.Warn("reclaimed stale job locks", "count", n)
			}
		}
	}
}

// scheduleLoop enqueues recurring jobs when their schedule fires.
func (d *Dispatcher) scheduleLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lastRun := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduled := d.service.ScheduledJobs()
			if scheduled == nil {
				continue
			}

			now := time.Now()
			for name, sj := range scheduled {
				nextRun := sj.Schedule.Next(lastRun[name])
				if now.After(nextRun) || now.Equal(nextRun) {
					_, err := d.service.Enqueue(ctx, sj.Queue, sj.ActorID)
					if err != nil {
						d.logger.Error("failed to enqueue scheduled job", "name", name, "error", err)
					} else {
						lastRun[name] = now
					}
				}
			}
		}
	}
}
