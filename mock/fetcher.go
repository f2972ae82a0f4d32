package mock

import (
	"context"

	"github.com/fwojciec/docsite"
)

var _ docsite.PageFetcher = (*PageFetcher)(nil)

// PageFetcher is a mock implementation of docsite.PageFetcher.
type PageFetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}
