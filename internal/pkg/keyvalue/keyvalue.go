// Package keyvalue defines the flat string-keyed persistence backend used by
// the history, reminder and family stores. Implementations must treat a
// missing key as ("", nil), not an error.
package keyvalue

import (
	"context"
	"sync"
)

// Backend is a minimal string key-value store.
type Backend interface {
	// Get returns the value for key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process Backend used in tests and as a degraded fallback.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
