package mock

import (
	"context"

	"github.com/fwojciec/docsite"
)

var _ docsite.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of docsite.MetadataExtractor.
type MetadataExtractor struct {
	ExtractFn func(ctx context.Context, manifest *docsite.Manifest) ([]*docsite.PageRecord, error)
}

func (e *MetadataExtractor) Extract(ctx context.Context, manifest *docsite.Manifest) ([]*docsite.PageRecord, error) {
	return e.ExtractFn(ctx, manifest)
}
