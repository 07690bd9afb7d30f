// ABOUTME: Retrying JSON HTTP client used for all agent-runtime calls
// ABOUTME: Classifies failures and retries transient ones with linear backoff

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// maxAttempts is the per-call attempt ceiling. Each logical call gets
	// its own fresh budget; there is no circuit breaker across calls.
	maxAttempts = 3

	// baseDelay scales linearly with the attempt number: the wait before
	// retry n is n * baseDelay.
	baseDelay = 3 * time.Second

	// attemptTimeout bounds a single attempt, not the whole call.
	attemptTimeout = 15 * time.Second
)

// Client wraps an *http.Client with JSON encoding, error classification
// and bounded retries against a single base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	// delay is swapped out in tests so retries don't sleep for real.
	delay func(ctx context.Context, d time.Duration) error
}

// New creates a transport client for the given base URL.
// The trailing slash on baseURL, if any, is stripped.
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger.With("component", "transport"),
		delay:   sleepContext,
	}
}

// Response is a fully-read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Do performs an HTTP request against baseURL+path. A non-nil body is
// JSON-encoded. Transient failures (connection errors, timeouts, 5xx)
// are retried up to the attempt ceiling; 4xx responses are returned
// immediately as client errors. When the ceiling is reached the last
// classified error is wrapped in a *RetryExhaustedError so callers can
// still tell a timeout from a refused connection.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	var last *Error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Linear backoff: attempt number times the base delay.
			wait := time.Duration(attempt-1) * baseDelay
			c.logger.Warn("request failed, retrying",
				"method", method,
				"path", path,
				"attempt", attempt-1,
				"wait", wait,
				"error", last)
			if err := c.delay(ctx, wait); err != nil {
				return nil, err
			}
		}

		resp, terr := c.attempt(ctx, method, path, payload)
		if terr == nil {
			return resp, nil
		}
		if terr.Kind == KindClient {
			// Caller bug or bad input; retrying won't change the answer.
			return nil, terr
		}
		last = terr
	}

	return nil, &RetryExhaustedError{Attempts: maxAttempts, Last: last}
}

// attempt performs one request with a per-attempt timeout and classifies
// the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*Response, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Body: snippet(data)}
	case resp.StatusCode >= 400:
		return nil, &Error{Kind: KindClient, Status: resp.StatusCode, Body: snippet(data)}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// classify maps a transport-level error to its retryable kind.
func classify(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Err: err}
	default:
		// Refused/reset connections, DNS failures and everything else
		// the OS surfaces before a response arrives.
		return &Error{Kind: KindConnection, Err: err}
	}
}

// snippet trims a response body for inclusion in error messages.
func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// sleepContext sleeps for d unless the context is cancelled first.
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
