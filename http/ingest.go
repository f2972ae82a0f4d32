// Package http provides the HTTP clients: an Ingester that posts event
// batches to a dataset ingest endpoint and a PageFetcher for rendered pages.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/docsite"
)

// DefaultIngestTimeout is the default timeout for a single ingest request.
const DefaultIngestTimeout = 10 * time.Second

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

var datasetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Ensure IngestClient implements docsite.Ingester at compile time.
var _ docsite.Ingester = (*IngestClient)(nil)

// IngestClient posts events to {endpoint}/v1/datasets/{dataset}/ingest.
type IngestClient struct {
	client  *http.Client
	timeout time.Duration
	url     string
	token   string
}

// Option configures an IngestClient.
type Option func(*IngestClient)

// WithTimeout sets the timeout for ingest requests.
// Defaults to DefaultIngestTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *IngestClient) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying client. The timeout option is
// ignored when a client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *IngestClient) {
		c.client = hc
	}
}

// NewIngestClient validates the endpoint configuration and returns a client.
// Invalid configuration is reported with code ECONFIG.
func NewIngestClient(endpoint, dataset, token string, opts ...Option) (*IngestClient, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, docsite.Errorf(docsite.ECONFIG, "invalid ingest endpoint %q", endpoint)
	}
	if !datasetName.MatchString(dataset) {
		return nil, docsite.Errorf(docsite.ECONFIG, "invalid dataset name %q", dataset)
	}
	if strings.TrimSpace(token) == "" {
		return nil, docsite.Errorf(docsite.ECONFIG, "ingest token required")
	}

	c := &IngestClient{
		timeout: DefaultIngestTimeout,
		url:     u.String() + "/v1/datasets/" + url.PathEscape(dataset) + "/ingest",
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// URL returns the ingest URL.
func (c *IngestClient) URL() string {
	return c.url
}

// Ingest posts the batch. Network failures, 429 and 5xx responses are
// reported as EUNAVAILABLE; any other non-2xx status as EINVALID.
func (c *IngestClient) Ingest(ctx context.Context, events []*docsite.Event) error {
	if len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return docsite.Errorf(docsite.EUNAVAILABLE, "ingest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(text))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return docsite.Errorf(docsite.EUNAVAILABLE, "HTTP %d from ingest: %s", resp.StatusCode, msg)
	}
	return docsite.Errorf(docsite.EINVALID, "HTTP %d from ingest: %s", resp.StatusCode, msg)
}
