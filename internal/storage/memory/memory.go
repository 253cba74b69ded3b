// Package memory is a process-local Storage used in development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/storage"
)

// Storage keeps values in a map guarded by a RWMutex.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, clientID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[storage.Key(clientID, key)]
	if !ok {
		return nil, storage.ErrNotFound(clientID, key)
	}
	return append([]byte(nil), v...), nil
}

func (s *Storage) Set(_ context.Context, clientID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[storage.Key(clientID, key)] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Delete(_ context.Context, clientID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, storage.Key(clientID, key))
	return nil
}

func (s *Storage) Ping(context.Context) error { return nil }

// Len returns the number of stored values.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
