// Package snapshot persists selections so they survive restarts.
package snapshot

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned by Load when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot: not found")

// Store loads and saves selection snapshots by key.
type Store interface {
	Load(ctx context.Context, key string) ([]string, error)
	Save(ctx context.Context, key string, items []string) error
}

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string][]string
	saves int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string][]string)}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.snaps[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(items), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, items []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps[key] = slices.Clone(items)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
