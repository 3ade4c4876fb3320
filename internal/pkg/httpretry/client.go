// Package httpretry provides an HTTP client with automatic retry logic and a
// pluggable backoff for resilient external API calls.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/lead-cleaner/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Backoff returns the wait before retry attempt n (n >= 1).
type Backoff func(attempt int) time.Duration

// ExponentialJitter waits random(0, min(max, base*2^(attempt-1))) with a
// 100ms floor.
func ExponentialJitter(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		expDelay := float64(base) * math.Pow(2, float64(attempt-1))
		if expDelay > float64(max) {
			expDelay = float64(max)
		}

		// Full jitter
		jittered := time.Duration(rand.Float64() * expDelay)
		if jittered < 100*time.Millisecond {
			jittered = 100 * time.Millisecond
		}
		return jittered
	}
}

// Linear waits step*attempt.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// Stats describes how a request went.
type Stats struct {
	Attempts    int
	RetriesUsed int
	LastStatus  int
}

// RetryClient wraps an HTTPDoer with retry logic.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	backoff    Backoff
}

// Option configures a RetryClient.
type Option func(*RetryClient)

// WithBackoff replaces the default exponential backoff.
func WithBackoff(b Backoff) Option {
	return func(rc *RetryClient) { rc.backoff = b }
}

// NewRetryClient creates a new RetryClient that wraps the given HTTPDoer.
// If client is nil, a default http.Client with 30s timeout is used.
// maxRetries is the number of retry attempts after the initial request;
// a negative value selects the default of 3.
func NewRetryClient(client HTTPDoer, maxRetries int, opts ...Option) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	rc := &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		backoff:    ExponentialJitter(1*time.Second, 30*time.Second),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Do executes the HTTP request with retry logic.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	resp, _, err := rc.DoWithStats(req)
	return resp, err
}

// DoWithStats executes the request like Do and also reports attempts.
// It retries on retryable status codes (429, 500, 502, 503, 504) and
// transient network/timeout errors. It does NOT retry on other client errors
// or context cancellation. On the final attempt, it returns the response
// as-is so the caller can inspect the status code and body.
func (rc *RetryClient) DoWithStats(req *http.Request) (*http.Response, Stats, error) {
	var (
		lastErr error
		stats   Stats
	)

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, stats, lastErr
			}
			return nil, stats, req.Context().Err()
		}

		// Backoff before retry (skip on first attempt)
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, stats, fmt.Errorf("httpretry: failed to reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.backoff(attempt)
			logger.Warn("httpretry: retrying request",
				"attempt", attempt, "max_retries", rc.maxRetries,
				"method", req.Method, "url", req.URL.Host+req.URL.Path,
				"wait", delay, "last_error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, stats, lastErr
				}
				return nil, stats, req.Context().Err()
			}
		}

		stats.Attempts = attempt + 1
		stats.RetriesUsed = attempt

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, stats, err
			}
			continue
		}
		stats.LastStatus = resp.StatusCode

		if !IsRetryableStatus(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, stats, nil
		}

		// Drain body for connection reuse, then retry
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("retryable http_%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return nil, stats, lastErr
}

// IsRetryableStatus returns true if the HTTP status code indicates a
// transient server error that should be retried.
// Retries: 429 (Too Many Requests), 500, 502, 503, 504.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
