// Package retry wraps one fallible operation with bounded exponential
// backoff. Attempts are strictly serial: a duplicate in-flight call would
// burn generation quota and could return divergent results for the same
// logical request.
package retry

import (
	"context"
	"time"
)

// DefaultMaxAttempts is the attempt bound when Options leaves it zero.
const DefaultMaxAttempts = 3

// DefaultBaseDelay is the backoff base when Options leaves it zero.
const DefaultBaseDelay = time.Second

// Attempt records one attempt for observability.
type Attempt struct {
	// Number is the 1-indexed attempt number.
	Number int `json:"number"`
	// Duration is how long the attempt ran.
	Duration time.Duration `json:"duration"`
	// Err is the attempt's error, nil on success.
	Err error `json:"-"`
}

// Log is the ordered record of every attempt made.
type Log []Attempt

// Options configures Do.
type Options struct {
	// MaxAttempts bounds the number of attempts (default DefaultMaxAttempts).
	MaxAttempts int
	// BaseDelay is the backoff base; attempt n sleeps BaseDelay * 2^n
	// before the next attempt (default DefaultBaseDelay).
	BaseDelay time.Duration
	// OnAttempt, if set, is called after every attempt completes.
	OnAttempt func(Attempt)
}

// Do runs fn up to MaxAttempts times, sleeping BaseDelay * 2^attempt
// between failures. On exhaustion the last attempt's error is returned
// unchanged so callers can distinguish failure kinds. The backoff sleep
// honors context cancellation; cancellation during the sleep returns the
// context's error.
func Do[T any](ctx context.Context, opts Options, fn func(context.Context) (T, error)) (T, Log, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	base := opts.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}

	var zero T
	var log Log
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		start := time.Now()
		result, err := fn(ctx)
		record := Attempt{Number: attempt + 1, Duration: time.Since(start), Err: err}
		log = append(log, record)
		if opts.OnAttempt != nil {
			opts.OnAttempt(record)
		}

		if err == nil {
			return result, log, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		if err := sleep(ctx, base<<attempt); err != nil {
			return zero, log, err
		}
	}

	return zero, log, lastErr
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
