package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU store whose entries expire after a TTL.
type Memory[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewMemory holds at most size entries, each for ttl.
func NewMemory[V any](size int, ttl time.Duration) *Memory[V] {
	if size <= 0 {
		size = 1
	}
	return &Memory[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		var zero V
		return zero, ErrCacheMiss
	}
	return v, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	m.lru.Add(key, value)
	return nil
}

// Len reports the number of live entries.
func (m *Memory[V]) Len() int { return m.lru.Len() }

func (m *Memory[V]) Close() error {
	m.lru.Purge()
	return nil
}
