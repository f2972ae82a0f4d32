package slog

import (
	"log/slog"

	"github.com/fwojciec/docsite"
)

// Ensure LoggingStorage implements docsite.Storage.
var _ docsite.Storage = (*LoggingStorage)(nil)

// LoggingStorage wraps a Storage, logging failed operations at debug level.
type LoggingStorage struct {
	next   docsite.Storage
	logger *slog.Logger
}

// NewLoggingStorage creates a new LoggingStorage.
func NewLoggingStorage(next docsite.Storage, logger *slog.Logger) *LoggingStorage {
	return &LoggingStorage{next: next, logger: logger}
}

func (s *LoggingStorage) Get(key string) (string, bool, error) {
	v, ok, err := s.next.Get(key)
	if err != nil {
		s.logger.Debug("storage get failed", "key", key, "err", err)
	}
	return v, ok, err
}

func (s *LoggingStorage) Set(key, value string) error {
	err := s.next.Set(key, value)
	if err != nil {
		s.logger.Debug("storage set failed", "key", key, "size", len(value), "err", err)
	}
	return err
}

func (s *LoggingStorage) Remove(key string) error {
	err := s.next.Remove(key)
	if err != nil {
		s.logger.Debug("storage remove failed", "key", key, "err", err)
	}
	return err
}
