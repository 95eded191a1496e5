// Package httpx is the HTTP transport shared by the AI provider adapters.
// It adds request throttling, bounded retries of transient failures and
// typed status errors on top of net/http.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/logger"
)

// Default retry schedule for transient failures.
const (
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 10 * time.Second
	maxErrorBody           = 512
)

// Config holds configuration for a provider client.
type Config struct {
	// Provider names the remote service in errors and logs.
	Provider string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// RequestsPerMinute throttles requests. Zero disables throttling.
	RequestsPerMinute int

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// NewBackOff overrides the retry schedule (tests use a zero backoff).
	NewBackOff func() backoff.BackOff

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends JSON requests to one provider.
type Client struct {
	provider   string
	http       *http.Client
	limiter    *rate.Limiter
	maxTries   uint
	newBackOff func() backoff.BackOff
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	c := &Client{
		provider:   cfg.Provider,
		http:       cfg.HTTPClient,
		limiter:    NewLimiter(cfg.RequestsPerMinute),
		maxTries:   uint(max(cfg.MaxRetries, 0)) + 1,
		newBackOff: cfg.NewBackOff,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.newBackOff == nil {
		c.newBackOff = defaultBackOff
	}
	return c
}

// NewLimiter returns a limiter admitting rpm requests per minute, or nil
// when rpm is not positive.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// PostJSON posts in as JSON and decodes a successful response into out.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	body, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		setHeaders(req, header)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// Ping issues a single GET and fails on any non-2xx status.
func (c *Client) Ping(ctx context.Context, url string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", c.provider, err)
	}
	setHeaders(req, header)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	return nil
}

// Do sends the request built by newReq and returns the body of a 2xx
// response. Network errors and retryable statuses are retried up to the
// configured limit; other failures return immediately.
func (c *Client) Do(ctx context.Context, newReq func(context.Context) (*http.Request, error)) ([]byte, error) {
	attempt := func() ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%s: create request: %w", c.provider, err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, fmt.Errorf("%s: send request: %w", c.provider, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := c.statusError(resp)
			if IsRetryableHTTPStatus(resp.StatusCode) {
				return nil, serr
			}
			return nil, backoff.Permanent(serr)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: read response: %w", c.provider, err)
		}
		return body, nil
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("%s request failed, retrying in %s: %v", c.provider, next, err)
		}),
	)
}

func (c *Client) statusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: RetryAfterDuration(resp.Header, 0, 0),
	}
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

// Error implements error.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: API returned status %d", e.Provider, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

// HTTPStatusCode returns the response status.
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// IsRetryableHTTPStatus reports whether a status is worth retrying.
func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// RetryAfterDuration parses a Retry-After header given in seconds, capped at
// limit when limit is positive.
func RetryAfterDuration(h http.Header, fallback, limit time.Duration) time.Duration {
	d := fallback
	if ra := strings.TrimSpace(h.Get("Retry-After")); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			d = time.Duration(secs) * time.Second
		}
	}
	if limit > 0 && d > limit {
		d = limit
	}
	return d
}

func setHeaders(req *http.Request, header http.Header) {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialInterval
	b.MaxInterval = DefaultMaxInterval
	return b
}
