package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsite"
)

// Ensure LoggingIngester implements docsite.Ingester.
var _ docsite.Ingester = (*LoggingIngester)(nil)

// LoggingIngester wraps an Ingester with logging of every delivery.
type LoggingIngester struct {
	next    docsite.Ingester
	dataset string
	logger  *slog.Logger
}

// NewLoggingIngester creates a new LoggingIngester.
func NewLoggingIngester(next docsite.Ingester, dataset string, logger *slog.Logger) *LoggingIngester {
	return &LoggingIngester{next: next, dataset: dataset, logger: logger}
}

// Ingest delegates to the wrapped ingester and logs the outcome.
func (i *LoggingIngester) Ingest(ctx context.Context, events []*docsite.Event) (err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		i.logger.Log(ctx, level, "ingest",
			"dataset", i.dataset,
			"count", len(events),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.Ingest(ctx, events)
}
