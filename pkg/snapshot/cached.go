package snapshot

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore fronts a Store with an LRU cache. Loads are served from the
// cache when possible and saves identical to the cached value are skipped.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, []string]
}

// NewCachedStore wraps inner with a cache of size entries.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (s *CachedStore) Load(ctx context.Context, key string) ([]string, error) {
	if items, ok := s.cache.Get(key); ok {
		return slices.Clone(items), nil
	}
	items, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, slices.Clone(items))
	return items, nil
}

func (s *CachedStore) Save(ctx context.Context, key string, items []string) error {
	if cached, ok := s.cache.Peek(key); ok && slices.Equal(cached, items) {
		return nil
	}
	if err := s.inner.Save(ctx, key, items); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, slices.Clone(items))
	return nil
}

// Purge drops every cached entry.
func (s *CachedStore) Purge() {
	s.cache.Purge()
}
