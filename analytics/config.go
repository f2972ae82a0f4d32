// Package analytics implements the privacy-first usage analytics collector.
//
// The collector never uses cookies: session identity lives in session-scoped
// storage only, and the browser is reduced to coarse categories before any
// event leaves the process.
package analytics

import (
	"strings"
	"time"

	"github.com/fwojciec/docsite"
)

// Config holds collector settings.
type Config struct {
	Endpoint string
	Dataset  string
	Token    string
	Debug    bool

	// FlushInterval is how long a partial batch waits before it is sent.
	FlushInterval time.Duration

	// MaxBatchSize forces a flush once this many events are queued.
	MaxBatchSize int

	// MaxQueueSize caps the queue; the oldest events are evicted first.
	MaxQueueSize int

	// UnloadTimeout bounds the best-effort delivery on page unload.
	UnloadTimeout time.Duration

	Retry RetryPolicy

	TrackOutboundLinks bool
	TrackInternalLinks bool
	TrackScrollDepth   bool
	ScrollThresholds   []int

	// RateLimit is the sustained number of events per second allowed for a
	// single event key; RateBurst is the bucket size. A RateLimit <= 0
	// disables rate limiting.
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns the settings used on the documentation site.
func DefaultConfig() Config {
	return Config{
		Endpoint:           "https://api.axiom.co",
		Dataset:            "docs-analytics",
		FlushInterval:      5 * time.Second,
		MaxBatchSize:       10,
		MaxQueueSize:       100,
		UnloadTimeout:      2 * time.Second,
		Retry:              DefaultRetryPolicy(),
		TrackOutboundLinks: true,
		TrackInternalLinks: true,
		TrackScrollDepth:   true,
		ScrollThresholds:   []int{25, 50, 75, 90},
		RateLimit:          2,
		RateBurst:          5,
	}
}

// Validate reports configuration errors with code ECONFIG.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return docsite.Errorf(docsite.ECONFIG, "analytics token required")
	}
	if strings.TrimSpace(c.Dataset) == "" {
		return docsite.Errorf(docsite.ECONFIG, "analytics dataset required")
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return docsite.Errorf(docsite.ECONFIG, "analytics endpoint required")
	}
	if c.FlushInterval <= 0 {
		return docsite.Errorf(docsite.ECONFIG, "flush interval must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return docsite.Errorf(docsite.ECONFIG, "max batch size must be positive")
	}
	if c.MaxQueueSize < c.MaxBatchSize {
		return docsite.Errorf(docsite.ECONFIG, "max queue size %d below batch size %d", c.MaxQueueSize, c.MaxBatchSize)
	}
	if c.Retry.MaxRetries < 0 {
		return docsite.Errorf(docsite.ECONFIG, "max retries cannot be negative")
	}
	return nil
}

// MetaOverrides are configuration values supplied by the hosting page.
type MetaOverrides struct {
	Token   string
	Dataset string
	Debug   *bool
}

// ApplyMeta applies page-supplied overrides. A token from the page is only
// used when none is configured; dataset and debug always win.
func (c *Config) ApplyMeta(m MetaOverrides) {
	if c.Token == "" && m.Token != "" {
		c.Token = m.Token
	}
	if m.Dataset != "" {
		c.Dataset = m.Dataset
	}
	if m.Debug != nil {
		c.Debug = *m.Debug
	}
}

// RetryPolicy is a linear backoff for transient delivery failures.
type RetryPolicy struct {
	Initial    time.Duration // delay before the first retry
	Max        time.Duration // cap for growth
	MaxRetries int           // retry attempts after the first failure
}

// DefaultRetryPolicy returns 1s, 2s, 3s delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Initial: time.Second, Max: 30 * time.Second, MaxRetries: 3}
}

// Delay returns the delay before the given retry (1-based).
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	d := time.Duration(retry) * p.Initial
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}
