package mock

import "github.com/fwojciec/docsite"

var _ docsite.Storage = (*Storage)(nil)

// Storage is a mock implementation of docsite.Storage.
type Storage struct {
	GetFn    func(key string) (string, bool, error)
	SetFn    func(key, value string) error
	RemoveFn func(key string) error
}

func (s *Storage) Get(key string) (string, bool, error) {
	return s.GetFn(key)
}

func (s *Storage) Set(key, value string) error {
	return s.SetFn(key, value)
}

func (s *Storage) Remove(key string) error {
	return s.RemoveFn(key)
}
