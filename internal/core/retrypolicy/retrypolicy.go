// Package retrypolicy wraps a fallible operation with bounded retries,
// an initial delay, and geometric backoff on a declared retryable-error
// class
package retrypolicy

import (
	"context"
	"time"

	perr "github.com/ryansgi/rabbit/internal/platform/errors"
)

// Policy configures Do's retry behavior
type Policy struct {
	// MaxAttempts is the maximum number of invocations. If MaxAttempts <= 0,
	// fn is invoked exactly once with no retry logic
	MaxAttempts int

	// Delay is the sleep duration before the first retry
	Delay time.Duration

	// Backoff multiplies Delay after each attempt
	Backoff float64

	// Sleep is injectable so tests don't pay wall-clock time; defaults to
	// time.Sleep when left nil
	Sleep func(time.Duration)
}

// Default mirrors the teacher/original defaults: 3 attempts, 10s initial
// delay, 2.0 geometric backoff
func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 10 * time.Second, Backoff: 2.0}
}

// Do invokes fn up to Policy.MaxAttempts times. Between attempts it sleeps
// Delay, then multiplies Delay by Backoff. Only errors classified
// perr.Retryable are retried; any other failure propagates immediately.
// After exhausting attempts, the last retryable error is returned
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	if p.MaxAttempts <= 0 {
		return fn()
	}

	delay := p.Delay
	var zero T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !perr.Retryable(err) {
			return zero, err
		}

		lastErr = err
		if attempt < p.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			default:
			}
			sleep(delay)
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}
	return zero, lastErr
}
