// README: In-memory cache backend; staleness is checked at read time, no sweep.
package ratecache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	val      []byte
	storedAt time.Time
	ttl      time.Duration
}

type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.storedAt) > e.ttl {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{val: val, storedAt: m.now(), ttl: ttl}
	m.mu.Unlock()
	return nil
}
