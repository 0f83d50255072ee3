// Package cache provides mesh cache backends keyed by compile request
// digest. A cache hit lets the render pipeline skip the compiler entirely
// when a parameter set it has already rendered comes around again.
package cache

import (
	"container/list"
	"context"
	"sync"
)

// Memory is a bounded in-process LRU cache. The zero value is not usable;
// construct with NewMemory.
type Memory struct {
	mu       sync.Mutex
	maxBytes int64
	size     int64
	order    *list.List
	entries  map[string]*list.Element
}

type memoryEntry struct {
	key  string
	mesh []byte
}

// NewMemory builds an in-memory cache holding at most maxBytes of mesh
// data. A non-positive budget means unbounded.
func NewMemory(maxBytes int64) *Memory {
	return &Memory{
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the cached mesh for key and marks it recently used.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	m.order.MoveToFront(elem)

	entry := elem.Value.(*memoryEntry)
	mesh := make([]byte, len(entry.mesh))
	copy(mesh, entry.mesh)
	return mesh, true, nil
}

// Set stores mesh under key, evicting least recently used entries when the
// byte budget is exceeded.
func (m *Memory) Set(_ context.Context, key string, mesh []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(mesh))
	copy(stored, mesh)

	if elem, ok := m.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		m.size += int64(len(stored)) - int64(len(entry.mesh))
		entry.mesh = stored
		m.order.MoveToFront(elem)
	} else {
		m.entries[key] = m.order.PushFront(&memoryEntry{key: key, mesh: stored})
		m.size += int64(len(stored))
	}

	if m.maxBytes <= 0 {
		return nil
	}
	for m.size > m.maxBytes && m.order.Len() > 1 {
		oldest := m.order.Back()
		entry := oldest.Value.(*memoryEntry)
		m.order.Remove(oldest)
		delete(m.entries, entry.key)
		m.size -= int64(len(entry.mesh))
	}
	return nil
}

// Len reports the number of cached meshes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
