package retry

import (
	"math/rand"
	"time"
)

// Policy holds backoff configuration for recoverable job failures.
type Policy struct {
	// Initial is the delay before the first retry.
	// Default: 10s
	Initial time.Duration

	// Multiplier is the factor applied to the delay for each further attempt.
	// Default: 2.0
	Multiplier float64

	// Max caps the computed delay. 0 means uncapped; an uncapped policy
	// keeps retry times strictly increasing for every attempt.
	Max time.Duration

	// Jitter is the fraction of the delay to randomize (0.0 to 1.0).
	// Default: 0 (deterministic backoff).
	Jitter float64

	// MaxAttempts forces a recoverable failure into a terminal one once the
	// attempt count reaches it. 0 means retry indefinitely.
	MaxAttempts int
}

// DefaultPolicy returns the default backoff policy: 10s base delay doubling
// per attempt, uncapped, no jitter, unlimited attempts.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    10 * time.Second,
		Multiplier: 2.0,
	}
}

// NextRetryTime computes when a job failing its attemptNumber-th invocation
// becomes eligible again. attemptNumber starts at 1. The result is always
// strictly after now.
func (p Policy) NextRetryTime(now time.Time, attemptNumber int) time.Time {
	return now.Add(p.Delay(attemptNumber))
}

// Delay returns the backoff duration for the given attempt number.
func (p Policy) Delay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	initial := p.Initial
	if initial <= 0 {
		initial = 10 * time.Second
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 2.0
	}

	delay := float64(initial)
	for i := 1; i < attemptNumber; i++ {
		delay *= multiplier
		if p.Max > 0 && delay >= float64(p.Max) {
			delay = float64(p.Max)
			break
		}
	}

	d := time.Duration(delay)
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}

	if p.Jitter > 0 {
		jitter := time.Duration(float64(d) * p.Jitter * (rand.Float64()*2 - 1))
		if d+jitter > 0 {
			d += jitter
		}
	}

	if d <= 0 {
		d = time.Nanosecond
	}
	return d
}

// Exhausted reports whether attempts has reached the MaxAttempts cutoff.
// It always returns false when MaxAttempts is 0.
func (p Policy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}
