// Package memory provides in-process implementations of docsite.Storage.
package memory

import (
	"log/slog"
	"sync"

	"github.com/fwojciec/docsite"
)

var _ docsite.Storage = (*Storage)(nil)

// Storage is a map-backed docsite.Storage. The zero value is ready to use.
type Storage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{}
}

func (s *Storage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Storage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *Storage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

var _ docsite.Storage = (*FallbackStorage)(nil)

// FallbackStorage wraps a primary Storage that may be unavailable. After the
// first primary failure it switches to memory for the rest of its life, so
// reads stay consistent with earlier writes.
type FallbackStorage struct {
	primary docsite.Storage
	memory  Storage
	logger  *slog.Logger

	mu     sync.Mutex
	failed bool
}

// NewFallbackStorage returns a FallbackStorage over primary. A nil logger
// discards output.
func NewFallbackStorage(primary docsite.Storage, logger *slog.Logger) *FallbackStorage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FallbackStorage{primary: primary, logger: logger}
}

// Degraded reports whether the primary storage has failed.
func (s *FallbackStorage) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *FallbackStorage) Get(key string) (string, bool, error) {
	if !s.Degraded() {
		v, ok, err := s.primary.Get(key)
		if err == nil {
			return v, ok, nil
		}
		s.fail("get", key, err)
	}
	return s.memory.Get(key)
}

func (s *FallbackStorage) Set(key, value string) error {
	if !s.Degraded() {
		err := s.primary.Set(key, value)
		if err == nil {
			return nil
		}
		s.fail("set", key, err)
	}
	return s.memory.Set(key, value)
}

func (s *FallbackStorage) Remove(key string) error {
	if !s.Degraded() {
		err := s.primary.Remove(key)
		if err == nil {
			return nil
		}
		s.fail("remove", key, err)
	}
	return s.memory.Remove(key)
}

func (s *FallbackStorage) fail(op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return
	}
	s.failed = true
	s.logger.Warn("storage unavailable, using memory", "op", op, "key", key, "error", err)
}
