// internal/progress/memory.go
//
// In-memory implementation of progress.Store.
// Used in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores one Book per owner in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Books are copied on the way in and out, so callers never share a map.
//   - State is lost when the process restarts.

package progress

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu    sync.RWMutex    // guards books
	books map[string]Book // keyed by owner
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]Book)}
}

// Load returns a copy of the owner's Book.
func (m *MemoryStore) Load(ctx context.Context, owner string) (Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.books[owner]; ok {
		return b.clone(), nil
	}
	return Book{}, nil
}

// Save replaces the owner's Book with a copy of b.
func (m *MemoryStore) Save(ctx context.Context, owner string, b Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[owner] = b.clone()
	return nil
}
