package dispatch

import (
	"time"

	"github.com/teacurran/village-jobs/pkg/security"
)

// Config holds dispatcher configuration.
type Config struct {
	// Concurrency is the number of consumer goroutines processing jobs.
	Concurrency int

	// BufferSize is the capacity of the notification channel. Notifications
	// arriving while the buffer is full are dropped; the poller picks the
	// job up on its next scan.
	BufferSize int

	// PollInterval is how often the poller scans for eligible jobs.
	PollInterval time.Duration

	// PollBatch is the maximum number of jobs fetched per poll.
	PollBatch int

	// ReclaimAfter, when positive, enables the stale-lock sweeper: jobs
	// locked longer than this are unlocked and become claimable again.
	// Zero disables the sweep; a job orphaned by a crashed worker then
	// stays locked indefinitely.
	ReclaimAfter time.Duration

	// ReclaimInterval is how often the sweeper runs when enabled.
	ReclaimInterval time.Duration

	// EnableScheduler runs the recurring-schedule loop.
	EnableScheduler bool
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		BufferSize:      256,
		PollInterval:    time.Second,
		PollBatch:       50,
		ReclaimInterval: time.Minute,
	}
}

// Option configures a Dispatcher.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(c *Config) { f(c) }

// Concurrency sets the number of consumer goroutines.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) Option {
	return optionFunc(func(c *Config) {
		c.Concurrency = security.ClampConcurrency(n)
	})
}

// BufferSize sets the notification channel capacity.
func BufferSize(n int) Option {
	return optionFunc(func(c *Config) {
		if n > 0 {
			c.BufferSize = n
		}
	})
}

// PollInterval sets how often the poller scans for eligible jobs.
func PollInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	})
}

// PollBatch sets the maximum number of jobs fetched per poll.
func PollBatch(n int) Option {
	return optionFunc(func(c *Config) {
		if n > 0 {
			c.PollBatch = n
		}
	})
}

// ReclaimStaleLocks enables the stale-lock sweeper for claims older than d.
func ReclaimStaleLocks(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.ReclaimAfter = d
	})
}

// ReclaimInterval sets how often the stale-lock sweeper runs.
func ReclaimInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.ReclaimInterval = d
		}
	})
}

// WithScheduler enables the recurring-schedule loop.
func WithScheduler(enabled bool) Option {
	return optionFunc(func(c *Config) {
		c.EnableScheduler = enabled
	})
}
