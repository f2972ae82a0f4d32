package mock

import (
	"context"

	"github.com/fwojciec/docsite"
)

var _ docsite.ArtifactWriter = (*ArtifactWriter)(nil)

// ArtifactWriter is a mock implementation of docsite.ArtifactWriter.
type ArtifactWriter struct {
	SaveFn   func(ctx context.Context, records []*docsite.PageRecord) error
	CommitFn func() error
	AbortFn  func() error
}

func (w *ArtifactWriter) Save(ctx context.Context, records []*docsite.PageRecord) error {
	return w.SaveFn(ctx, records)
}

func (w *ArtifactWriter) Commit() error {
	return w.CommitFn()
}

func (w *ArtifactWriter) Abort() error {
	return w.AbortFn()
}
