package cache

import (
	"context"
	"time"
)

// MemoryStore is the in-process Store backed by an LRUCache.
type MemoryStore struct {
	lru *LRUCache[[]byte]
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{lru: NewLRUCache[[]byte](opts.MaxEntries, opts.DefaultTTL)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	s.lru.SetWithTTL(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

// CleanExpired lets a Manager sweep the store.
func (s *MemoryStore) CleanExpired() int {
	return s.lru.CleanExpired()
}

func (s *MemoryStore) Close() error {
	s.lru.Clear()
	return nil
}
