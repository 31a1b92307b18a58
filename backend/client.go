package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fwojciec/pitch"
	"github.com/google/uuid"
)

// defaultRetryInterval is the first wait between open attempts.
const defaultRetryInterval = 500 * time.Millisecond

// Interface compliance check.
var _ pitch.Client = (*Client)(nil)

// Client implements [pitch.Client] for the match-analysis service.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	retries       int
	retryInterval time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the service base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request and record diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetries retries opening a stream up to n more times when the service
// is unreachable or answers 502, 503 or 504. Waits grow exponentially from
// interval, or from half a second when interval is not positive. Once a
// stream is open it is never retried.
func WithRetries(n int, interval time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

// New creates a [Client] with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		httpClient:    http.DefaultClient,
		logger:        slog.New(slog.DiscardHandler),
		retryInterval: defaultRetryInterval,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open sends the query and returns the raw response body. Any status outside
// 2xx is returned as a [*pitch.TransportError]. When ctx is cancelled the
// context error is returned instead.
func (c *Client) Open(ctx context.Context, q pitch.Query) (io.ReadCloser, error) {
	body, err := json.Marshal(apiRequest{
		Query:             q.Text,
		IncludeHighlights: q.IncludeHighlights,
		EmphasizeOrder:    q.EmphasizeOrder,
		Audience:          q.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	requestID := uuid.NewString()
	if c.retries == 0 {
		return c.open(ctx, body, requestID)
	}

	// WithMaxRetries treats zero as unlimited.
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retries)), ctx)

	var rc io.ReadCloser
	err = backoff.RetryNotify(func() error {
		r, err := c.open(ctx, body, requestID)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		rc = r
		return nil
	}, policy, func(err error, wait time.Duration) {
		c.logger.Warn("retrying stream open", "request_id", requestID, "error", err, "wait", wait)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return rc, nil
}

// open makes one request attempt.
func (c *Client) open(ctx context.Context, body []byte, requestID string) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("opening stream", "url", httpReq.URL.String(), "request_id", requestID)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &pitch.TransportError{Err: err}
	}
	c.logger.Debug("stream response", "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp.Body, nil
}

// retryable reports whether a failed open attempt may succeed if repeated.
func retryable(err error) bool {
	var tErr *pitch.TransportError
	if !errors.As(err, &tErr) {
		return false
	}
	switch tErr.StatusCode {
	case 0, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Stream opens the query and returns a [pitch.Stream] of its events.
func (c *Client) Stream(ctx context.Context, q pitch.Query) (pitch.Stream, error) {
	body, err := c.Open(ctx, q)
	if err != nil {
		return nil, err
	}
	return newStream(ctx, body, c.logger), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &pitch.TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		for _, msg := range []flexString{apiErr.Detail, apiErr.Error, apiErr.Message} {
			if msg != "" {
				return &pitch.TransportError{StatusCode: resp.StatusCode, Message: string(msg)}
			}
		}
	}
	return &pitch.TransportError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
