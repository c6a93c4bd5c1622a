package ghevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/ryansgi/rabbit/internal/core/retrypolicy"
)

const eventsPerPage = 100

// FetchOptions controls the rate-limit-wait behavior shared by UserByLogin
// and Events. NoWait mirrors spec.md §4.2's no_wait flag: when set, a rate
// limit with a known reset is propagated to the caller instead of slept
// through
type FetchOptions struct {
	NoWait bool
	Sleep  func(time.Duration)
}

func (o FetchOptions) sleep() func(time.Duration) {
	if o.Sleep != nil {
		return o.Sleep
	}
	return time.Sleep
}

// UserByLogin fetches an account document by login, used by the
// Orchestrator's account-type short circuit (Bot/Organization) before any
// events are fetched. GET /users/{login}, wrapped in the default retry
// policy and the rate-limit wait loop
func (c *Client) UserByLogin(ctx context.Context, login string, opts FetchOptions) (User, error) {
	path := fmt.Sprintf("/users/%s", login)
	body, err := c.doWithRateLimitWait(ctx, path, opts)
	if err != nil {
		return User{}, err
	}
	var out User
	if err := json.Unmarshal(body, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// Events returns a lazy, pull-based sequence of event pages for login,
// GETting /users/{login}/events?per_page=100&page=n starting at page 1
// and stopping at the first page with fewer than 100 events, or after
// maxQueries pages, whichever comes first (spec.md §4.2).
//
// Each yielded page is handed to the caller before the next page is
// requested, so a consumer that stops ranging early (classifier confidence
// already met) issues no further HTTP calls. A yielded error terminates
// the sequence; the caller decides how to classify it (NotFound -> Invalid,
// anything else -> propagate)
func (c *Client) Events(ctx context.Context, login string, maxQueries int, opts FetchOptions) iter.Seq2[[]Event, error] {
	return func(yield func([]Event, error) bool) {
		for page := 1; page <= maxQueries; page++ {
			events, err := c.queryEventPage(ctx, login, page, opts)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(events, nil) {
				return
			}
			if len(events) < eventsPerPage {
				return
			}
		}
	}
}

func (c *Client) queryEventPage(ctx context.Context, login string, page int, opts FetchOptions) ([]Event, error) {
	path := fmt.Sprintf("/users/%s/events?per_page=%d&page=%d", login, eventsPerPage, page)
	body, err := c.doWithRateLimitWait(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	var out []Event
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doWithRateLimitWait wraps a single GET in the default retry policy (for
// 408/500/504, per spec.md §4.2's RetryableError class) and, on top of
// that, absorbs rate limit responses with a known reset by sleeping until
// that reset and trying again in place -- unless NoWait is set or the reset
// is unknown, in which case the *RateLimitError propagates to the caller
func (c *Client) doWithRateLimitWait(ctx context.Context, path string, opts FetchOptions) ([]byte, error) {
	sleep := opts.sleep()
	for {
		policy := retrypolicy.Default()
		policy.Sleep = sleep
		body, err := retrypolicy.Do(ctx, policy, func() ([]byte, error) {
			return c.rawDo(ctx, "GET", path)
		})
		if err == nil {
			return body, nil
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return nil, err
		}
		if opts.NoWait || !rle.ResetKnown {
			return nil, err
		}

		wait := time.Until(rle.ResetAt)
		if wait < 0 {
			wait = 0
		}
		c.log.Warn().Dur("sleep", wait).Str("path", path).Msg("ghevents rate limited, waiting for reset")
		sleep(wait)
	}
}
