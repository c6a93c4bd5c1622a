package ghevents

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "github.com/ryansgi/rabbit/internal/platform/errors"
)

// RateLimitError reports a 403/429 response and how the caller should
// recover: if ResetKnown, sleep until ResetAt and retry the same request;
// otherwise the caller must propagate (spec.md §4.2 priority list)
type RateLimitError struct {
	ResetAt    time.Time
	ResetKnown bool
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	if e.ResetKnown {
		return "github rate limit exceeded, resets at " + e.ResetAt.Format(time.RFC3339)
	}
	return "github rate limit exceeded, reset unknown"
}

// classifyRateLimit decides reset-time priority per spec.md §4.2's 403/429
// case list:
//  1. Retry-After header present -> now + seconds
//  2. X-RateLimit-Remaining == 0 -> epoch(X-RateLimit-Reset)
//  3. unauthenticated request whose body names a rate limit -> unknown
//     reset; the caller propagates rather than waits
//  4. everything else (notably an authenticated 403/429 with no
//     rate-limit headers, e.g. abuse detection or a permissions error)
//     -> retryable, so retrypolicy.Do backs off and tries again instead
//     of aborting the whole run
func classifyRateLimit(body string, remaining int, reset time.Time, retryAfter int, authenticated bool) error {
	if retryAfter > 0 {
		return &RateLimitError{ResetAt: time.Now().Add(time.Duration(retryAfter) * time.Second), ResetKnown: true}
	}
	if remaining == 0 && !reset.IsZero() {
		return &RateLimitError{ResetAt: reset, ResetKnown: true}
	}
	if !authenticated && strings.Contains(strings.ToLower(body), "rate limit") {
		return &RateLimitError{ResetKnown: false}
	}
	return perr.Retryablef("ghevents: forbidden without rate-limit headers: %s", body)
}

// tokenState tracks the last observed rate-limit window for one token
type tokenState struct {
	remaining int
	reset     time.Time
}

func parseRateHeaders(h http.Header) (remaining int, reset time.Time, retryAfter int) {
	remaining = -1
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		remaining = atoi(v)
	}
	if rs := h.Get("X-RateLimit-Reset"); rs != "" {
		if sec := atoi(rs); sec > 0 {
			reset = time.Unix(int64(sec), 0).UTC()
		}
	}
	retryAfter = atoi(h.Get("Retry-After"))
	return
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(s)
	return i
}

// readSmall reads the first 2048 bytes as a diagnostic, collapsing newlines for
// single-line logging
func readSmall(rc io.ReadCloser) string {
	b, _ := io.ReadAll(io.LimitReader(rc, 2048))
	s := strings.TrimSpace(string(b))
	return strings.ReplaceAll(s, "\n", " ")
}

// readSmallLimit reads up to limit bytes of a 200 response body
func readSmallLimit(rc io.ReadCloser, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(rc, limit))
}

// IsRateLimited reports whether err is a *RateLimitError
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsNotFound reports whether err is tagged perr.ErrorCodeNotFound
func IsNotFound(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeNotFound)
}
