// Package infra provides shared infrastructure components used across
// the application: a rate-limited HTTP client with optional retries and
// bounded fan-out helpers.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is the user agent string used when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxErrorBody caps how much of a failed response is kept in ErrHTTP.
const maxErrorBody = 1024

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Retryable reports whether the status is worth retrying (429 or 5xx).
func (e *ErrHTTP) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from an error chain, or 0.
func StatusCode(err error) int {
	var he *ErrHTTP
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Client is a rate-limited HTTP client that applies a fixed header set to
// every request.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	headers     map[string]string
	rateLimiter *rate.Limiter
	maxRetries  int
	logger      *zap.Logger
}

// ClientOption allows for customization of the client.
type ClientOption func(*Client)

// NewClient creates a client with a 30s timeout, no rate limit and no retries.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  DefaultUserAgent,
		headers: map[string]string{
			"Accept":          "application/json, text/html, */*",
			"Accept-Language": "en-US,en;q=0.9",
		},
		logger: zap.L(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// WithHTTPClient allows custom HTTP client configuration.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the underlying client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeader sets a default header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRateLimit limits outgoing requests to rps per second with a burst of
// the same size. Zero or negative disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxRetries retries 429/5xx responses and transport errors up to n
// times with exponential backoff.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger used for retry notifications.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// DoGet performs a GET and returns the open body on success. Statuses >= 400
// are returned as *ErrHTTP. The caller must close the body.
func (c *Client) DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	var (
		body   io.ReadCloser
		status int
	)

	op := func() error {
		var err error
		body, status, err = c.doGetOnce(ctx, url, headers)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var he *ErrHTTP
		if errors.As(err, &he) && !he.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	if c.maxRetries <= 0 {
		err := op()
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return body, status, err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		c.logger.Warn("retrying request", zap.String("url", url), zap.Duration("after", d), zap.Error(err))
	})
	return body, status, err
}

// Get performs a GET and returns the full response body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, _, err := c.DoGet(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "read body of %s", url)
	}
	return data, nil
}

func (c *Client) doGetOnce(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "HTTP GET %s", url)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, &ErrHTTP{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}
