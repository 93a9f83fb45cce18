// Package cache stores transcriptions keyed by the SHA-256 of their audio so
// the same recording is never sent to the speech backend twice.
package cache

import (
	"context"
	"fmt"
	"sync"

	"call-compliance-go/internal/types"
)

// Store is a transcription cache.
type Store interface {
	Get(ctx context.Context, key string) (types.Transcription, bool, error)
	Put(ctx context.Context, key string, t types.Transcription) error
	Close() error
}

// Open returns the store for driver ("memory" or "sqlite").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]types.Transcription
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]types.Transcription{}}
}

func (m *Memory) Get(_ context.Context, key string) (types.Transcription, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.entries[key]
	return t, ok, nil
}

func (m *Memory) Put(_ context.Context, key string, t types.Transcription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = t
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
