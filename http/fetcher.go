package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/docsite"
)

// DefaultFetchTimeout is the default timeout for a single page request.
const DefaultFetchTimeout = 10 * time.Second

// maxPageSize bounds the body read for one page.
const maxPageSize = 10 << 20

// Ensure Fetcher implements docsite.PageFetcher at compile time.
var _ docsite.PageFetcher = (*Fetcher)(nil)

// Fetcher retrieves server-rendered pages. It does not execute scripts, so
// the result is the markup before any client-side customization.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	delays  []time.Duration
	logger  *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout sets the timeout for one request.
// Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRetryDelays sets the waits between attempts. Only EUNAVAILABLE
// failures are retried, once per delay.
func WithRetryDelays(delays ...time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.delays = delays
	}
}

// WithFetchLogger sets the logger used to report retries.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// DefaultRetryDelays returns 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
		delays:  DefaultRetryDelays(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at url, retrying transient failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(f.delays); attempt++ {
		if attempt > 0 {
			f.logger.Debug("page fetch retry", "url", url, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.delays[attempt-1]):
			}
		}

		html, err := f.fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		if !docsite.IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", docsite.Errorf(docsite.EINVALID, "page %q: %v", url, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", docsite.Errorf(docsite.EUNAVAILABLE, "page %q: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", docsite.Errorf(docsite.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", docsite.Errorf(docsite.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return "", docsite.Errorf(docsite.EINVALID, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", docsite.Errorf(docsite.EUNAVAILABLE, "page %q: %v", url, err)
	}
	return string(body), nil
}
