package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsite"
)

// Ensure LoggingExtractor implements docsite.MetadataExtractor.
var _ docsite.MetadataExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a MetadataExtractor with logging.
type LoggingExtractor struct {
	next   docsite.MetadataExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next docsite.MetadataExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the operation.
func (e *LoggingExtractor) Extract(ctx context.Context, manifest *docsite.Manifest) (records []*docsite.PageRecord, err error) {
	defer func(begin time.Time) {
		e.logger.Info("metadata extraction",
			"groups", len(manifest.Navigation),
			"count", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(ctx, manifest)
}
