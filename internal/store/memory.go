// internal/store/memory.go
//
// In-memory registry of live game sessions.
// Sessions are never persisted mid-play; only their terminal outcome reaches
// the progress store. This registry lets HTTP handlers find a session's Runner.
//
// Characteristics:
//   - Stores *Entry objects keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - ErrNotFound is returned for missing session IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/brainarcade/internal/session"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Entry binds a running session to who is playing it.
type Entry struct {
	ID        string
	OwnerID   string
	GameKey   string
	Daily     bool
	CreatedAt time.Time
	Runner    *session.Runner
}

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces an entry.
	Save(ctx context.Context, e *Entry) error

	// Get retrieves an entry by ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// Delete removes an entry. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep drops finished entries created before cutoff. Unfinished entries
	// with no player action since cutoff are abandoned and dropped too; their
	// IDs are returned in abandoned.
	Sweep(ctx context.Context, cutoff time.Time) (removed int, abandoned []string)

	// Close abandons every live session and empties the registry.
	Close()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex      // guards entries map
	entries map[string]*Entry // keyed by Entry.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{entries: make(map[string]*Entry)}
}

func (m *memory) Save(ctx context.Context, e *Entry) error {
	if e == nil || e.ID == "" {
		return errors.New("store: entry needs an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) (int, []string) {
	m.mu.Lock()
	var stale []*Entry
	removed := 0
	for id, e := range m.entries {
		select {
		case <-e.Runner.Done():
			if e.CreatedAt.Before(cutoff) {
				delete(m.entries, id)
				removed++
			}
		default:
			// A round left resolved has no clock running and would never time out.
			if e.Runner.LastActive().Before(cutoff) {
				delete(m.entries, id)
				stale = append(stale, e)
			}
		}
	}
	m.mu.Unlock()

	abandoned := make([]string, 0, len(stale))
	for _, e := range stale {
		e.Runner.Close()
		abandoned = append(abandoned, e.ID)
	}
	return removed + len(stale), abandoned
}

func (m *memory) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*Entry)
	m.mu.Unlock()

	for _, e := range entries {
		e.Runner.Close()
	}
}
