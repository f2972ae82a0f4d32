package mock

import (
	"context"

	"github.com/fwojciec/docsite"
)

var _ docsite.Ingester = (*Ingester)(nil)

// Ingester is a mock implementation of docsite.Ingester.
type Ingester struct {
	IngestFn func(ctx context.Context, events []*docsite.Event) error
}

func (i *Ingester) Ingest(ctx context.Context, events []*docsite.Event) error {
	return i.IngestFn(ctx, events)
}
