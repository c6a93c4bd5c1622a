// Package ghevents is a resilient GitHub REST v3 client scoped to the two
// endpoints the classifier needs: account type lookup and paginated public
// events
package ghevents

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "github.com/ryansgi/rabbit/internal/platform/errors"
	"github.com/ryansgi/rabbit/internal/platform/logger"
)

const (
	baseURLDefault = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	defaultUA      = "rabbit-classifier"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Comma separated tokens passed in from CLI or config
	// Empty means tokenless which is very low quota so not recommended
	TokensCSV string
}

// Client is a minimal GitHub REST client with token rotation. A single call
// to rawDo issues exactly one HTTP request and classifies the response into a
// typed error per the state machine in rawDo's doc comment; retrying and
// rate-limit absorption are the caller's responsibility (retrypolicy.Do and
// the Events/UserByLogin wait-for-reset loop, respectively)
type Client struct {
	http   *http.Client
	opts   Options
	tokens []string
	cur    atomic.Int32
	log    logger.Logger
	now    func() time.Time
	state  []tokenState
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	var toks []string
	if s := strings.TrimSpace(o.TokensCSV); s != "" {
		for t := range strings.SplitSeq(s, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				toks = append(toks, t)
			}
		}
	}
	log := logger.Named("ghevents")
	if len(toks) == 0 {
		log.Warn().Msg("ghevents: no tokens configured, running unauthenticated against a 60 requests/hour ceiling")
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		tokens: toks,
		state:  make([]tokenState, len(toks)),
		log:    *log,
		now:    time.Now,
	}
}

// nextIndex returns the next round-robin index starting from current cursor
func (c *Client) nextIndex() int {
	if len(c.tokens) == 0 {
		return -1
	}
	n := int(c.cur.Add(1))       // Add returns the NEW value
	i := (n - 1) % len(c.tokens) // so subtract 1 to start at 0
	if i < 0 {                   // paranoia
		i += len(c.tokens)
	}
	return i
}

// getToken chooses the next non-exhausted token if possible
// Falls back to plain round-robin if all are exhausted
func (c *Client) getToken(now time.Time) (tok string, idx int) {
	n := len(c.tokens)
	if n == 0 {
		return "", -1
	}

	start := c.nextIndex()
	i := start
	for range n {
		st := c.state[i]
		if st.remaining > 0 || st.reset.IsZero() || !st.reset.After(now) {
			return c.tokens[i], i
		}
		i++
		if i == n {
			i = 0
		}
	}

	// All appear exhausted; use round-robin slot anyway (server will 403/429)
	return c.tokens[start], start
}

// rawDo issues a single request and returns the parsed JSON body on 200, or
// a typed error classified from the response per spec.md's status table:
//
//	200         -> body, nil
//	403 or 429  -> classifyRateLimit: *RateLimitError with a known or
//	               unknown reset, or perr.ErrorCodeRetryable for an
//	               authenticated 403/429 with no rate-limit headers
//	404         -> perr.ErrorCodeNotFound
//	408/500/504 -> perr.ErrorCodeRetryable (caller should wrap the call in retrypolicy.Do)
//	other       -> mapPerrCode(status): ErrorCodeUnauthorized (401),
//	               ErrorCodeGone (410), ErrorCodeLegal (451), else ErrorCodeUnknown
func (c *Client) rawDo(ctx context.Context, method, path string) ([]byte, error) {
	url := c.opts.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ghevents new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	tok, tokIdx := c.getToken(c.now())
	if tok != "" {
		req.Header.Set("Authorization", "token "+tok)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return nil, perr.Retryablef("ghevents transport error: %v", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("ghevents close body failed")
		}
	}()

	rem, reset, retryAfter := parseRateHeaders(resp.Header)
	if tokIdx >= 0 && tokIdx < len(c.state) && rem >= 0 {
		c.state[tokIdx] = tokenState{remaining: rem, reset: reset}
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Int("rate_remaining", rem).
		Time("rate_reset", reset).
		Msg("ghevents http response")

	switch resp.StatusCode {
	case http.StatusOK:
		return readSmallLimit(resp.Body, 4<<20)

	case http.StatusForbidden, http.StatusTooManyRequests:
		body := readSmall(resp.Body)
		return nil, classifyRateLimit(body, rem, reset, retryAfter, len(c.tokens) > 0)

	case http.StatusNotFound:
		return nil, perr.NotFoundf("ghevents: resource not found")

	case http.StatusRequestTimeout, http.StatusInternalServerError, http.StatusGatewayTimeout:
		return nil, perr.Retryablef("ghevents transient status %d", resp.StatusCode)

	default:
		body := readSmall(resp.Body)
		return nil, perr.Newf(mapPerrCode(resp.StatusCode), "ghevents unexpected status %d: %s", resp.StatusCode, body)
	}
}

// mapPerrCode maps HTTP status to platform error codes for any status not
// already handled as a first-class case in rawDo's switch
func mapPerrCode(status int) perr.ErrorCode {
	switch status {
	case http.StatusGone:
		return perr.ErrorCodeGone
	case http.StatusUnavailableForLegalReasons:
		return perr.ErrorCodeLegal
	case http.StatusUnauthorized:
		return perr.ErrorCodeUnauthorized
	default:
		return perr.ErrorCodeUnknown
	}
}
