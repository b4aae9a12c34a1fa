package provider

import (
	"context"
	"time"
)

// RetryPolicy is an explicit bounded-retry description: attempt count and
// an exponential backoff window. It replaces the decorator-style retry of
// earlier iterations so callers can see and test the exact schedule.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// sleeper is swapped in tests to avoid real waiting.
	sleeper func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the historical 3-attempt, 1s..8s schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    8 * time.Second,
	}
}

// WithSleeper returns a copy of the policy using the supplied sleep
// function. Tests pass a no-op.
func (p RetryPolicy) WithSleeper(sleeper func(ctx context.Context, d time.Duration) error) RetryPolicy {
	p.sleeper = sleeper
	return p
}

// Delay returns the backoff before the given 1-based attempt's retry.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs fn up to MaxAttempts times, sleeping the backoff between
// attempts. Context cancellation stops the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleeper
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
