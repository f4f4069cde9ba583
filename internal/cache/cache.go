// Package cache provides the injected ephemeral key-value cache used for
// best-effort memory such as a participant's last-claimed item names. It is
// never a consistency source of truth: its lifetime is process start to
// process end, and everything in it is reconstructible from the store.
package cache

import "sync"

// Cache is a small string-keyed store for non-authoritative values.
type Cache interface {
	Get(key string) ([]string, bool)
	Set(key string, values []string)
	Clear()
}

// Memory is an in-process Cache backed by a mutex-guarded map.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]string
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]string)}
}

// Get returns the values stored under key, if any.
func (m *Memory) Get(key string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	out := make([]string, len(v))
	copy(out, v)
	return out, true
}

// Set stores values under key, replacing any previous entry.
func (m *Memory) Set(key string, values []string) {
	cp := make([]string, len(values))
	copy(cp, values)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cp
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]string)
}
