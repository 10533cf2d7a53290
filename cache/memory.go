package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store for development and tests. The read path
// enforces TTL itself so behavior matches a backend that has not pruned yet.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	if tooLarge(payload) {
		return
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{payload: payload, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) Prune(_ context.Context, limit int) int {
	now := m.now()
	deleted := 0

	m.mu.Lock()
	for key, entry := range m.entries {
		if deleted >= limit {
			break
		}
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			deleted++
		}
	}
	m.mu.Unlock()

	return deleted
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
