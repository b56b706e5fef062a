package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Common errors.
var (
	ErrNotFound         = errors.New("http: resource not found")
	ErrForbidden        = errors.New("http: access forbidden")
	ErrUnauthorized     = errors.New("http: unauthorized")
	ErrServerError      = errors.New("http: server error")
	ErrUnexpectedStatus = errors.New("http: unexpected status")
	ErrBodyTooLarge     = errors.New("http: response body exceeds limit")
)

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 20
	MaxIdleConnsPerHost int

	// Timeout bounds a single attempt, including reading the body.
	// Default: 30s
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per asset, first try included.
	// Default: 3
	MaxAttempts int

	// RetryDelay is the base delay between attempts. The wait after attempt n
	// is RetryDelay * n.
	// Default: 2s
	RetryDelay time.Duration

	// MaxBodySize caps the bytes read from a response. 0 disables the cap.
	// Default: 50MB
	MaxBodySize int64

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Logger receives one warning per failed attempt. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 20,
		Timeout:             30 * time.Second,
		MaxAttempts:         3,
		RetryDelay:          2 * time.Second,
		MaxBodySize:         50 * 1024 * 1024,
	}
}

// FetchError is returned when every attempt to download an asset failed.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int // last non-200 status seen, 0 if none
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client downloads whole assets with bounded retry.
type Client struct {
	client *http.Client
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new HTTP client with the given options.
// Zero-valued options fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:  opts,
		sleep: sleepContext,
	}
}

// Fetch downloads url and returns the response body.
//
// Any status other than 200, a timeout or a transport error fails the attempt.
// Every failure is retried the same way until MaxAttempts is reached; the
// result is then a *FetchError. Cancelling ctx stops the loop and returns the
// context error.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		data, status, err := c.get(ctx, url)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if status != 0 {
			lastStatus = status
		}
		lastErr = err

		c.opts.Logger.Warn("download attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", c.opts.MaxAttempts,
			"status", status,
			"error", err,
		)

		var reqErr *requestError
		if errors.As(err, &reqErr) {
			return nil, &FetchError{URL: url, Attempts: attempt, Err: reqErr.err}
		}
	}

	return nil, &FetchError{
		URL:        url,
		Attempts:   c.opts.MaxAttempts,
		StatusCode: lastStatus,
		Err:        lastErr,
	}
}

// requestError marks a request that could not even be built; retrying it is pointless.
type requestError struct{ err error }

func (e *requestError) Error() string { return "create request: " + e.err.Error() }

// get performs a single timed GET.
func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &requestError{err: err}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, resp.StatusCode, err
	}

	var body io.Reader = resp.Body
	if c.opts.MaxBodySize > 0 {
		body = io.LimitReader(resp.Body, c.opts.MaxBodySize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if c.opts.MaxBodySize > 0 && int64(len(data)) > c.opts.MaxBodySize {
		return nil, resp.StatusCode, ErrBodyTooLarge
	}

	return data, resp.StatusCode, nil
}

// backoff waits RetryDelay multiplied by the number of the attempt that just failed.
func (c *Client) backoff(ctx context.Context, failedAttempt int) error {
	return c.sleep(ctx, c.opts.RetryDelay*time.Duration(failedAttempt))
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkStatusCode returns an appropriate error for anything but 200.
func checkStatusCode(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, code)
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
}
