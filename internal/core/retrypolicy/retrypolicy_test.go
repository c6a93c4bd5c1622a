package retrypolicy

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "github.com/ryansgi/rabbit/internal/platform/errors"
)

func noSleep(d time.Duration) {}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2, Sleep: noSleep},
		func() (int, error) {
			calls++
			return 42, nil
		})
	if err != nil || got != 42 {
		t.Fatalf("Do() = %d, %v, want 42, nil", got, err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesRetryableThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2, Sleep: noSleep},
		func() (string, error) {
			calls++
			if calls < 3 {
				return "", perr.Retryablef("transient")
			}
			return "ok", nil
		})
	if err != nil || got != "ok" {
		t.Fatalf("Do() = %q, %v, want ok, nil", got, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttemptsReturnsLastError(t *testing.T) {
	calls := 0
	sentinel := perr.Retryablef("still failing")
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2, Sleep: noSleep},
		func() (int, error) {
			calls++
			return 0, sentinel
		})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoPropagatesNonRetryableImmediately(t *testing.T) {
	calls := 0
	nonRetryable := perr.NotFoundf("gone")
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2, Sleep: noSleep},
		func() (int, error) {
			calls++
			return 0, nonRetryable
		})
	if !errors.Is(err, nonRetryable) && err != nonRetryable {
		t.Fatalf("err = %v, want propagated non-retryable error", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on non-retryable error)", calls)
	}
}

func TestDoMaxAttemptsZeroInvokesOnceNoRetry(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 0},
		func() (int, error) {
			calls++
			return 0, perr.Retryablef("x")
		})
	if err == nil {
		t.Fatalf("expected the single call's error to propagate")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoBackoffGeometricGrowth(t *testing.T) {
	var delays []time.Duration
	calls := 0
	_, _ = Do(context.Background(), Policy{
		MaxAttempts: 4,
		Delay:       time.Second,
		Backoff:     2.0,
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	}, func() (int, error) {
		calls++
		return 0, perr.Retryablef("keep failing")
	})
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Fatalf("delays[%d] = %v, want %v", i, delays[i], d)
		}
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2, Sleep: noSleep},
		func() (int, error) {
			calls++
			return 0, perr.Retryablef("x")
		})
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 (cancelled before first attempt)", calls)
	}
}
