// Package cache holds slow-changing tenant reference data in front of the
// backing store and refreshes it when the store reports newer rows.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/chatengine/internal/clock"
)

// Store is a byte-oriented TTL key/value store.
type Store interface {
	// Get returns the value for key. A missing or expired key reports false.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]item
	clock clock.Clock
}

// NewMemoryStore creates an empty in-memory store. A nil clock uses wall time.
func NewMemoryStore(c clock.Clock) *MemoryStore {
	return &MemoryStore{items: make(map[string]item), clock: clock.OrReal(c)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.clock.Now().Before(it.expiresAt) {
		return nil, false, nil
	}
	return it.value, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.items[key] = item{value: v, expiresAt: m.clock.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Ping implements Store.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Purge drops expired entries and returns how many were removed.
func (m *MemoryStore) Purge() int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
