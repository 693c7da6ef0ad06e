// Package progress persists the terminal outcome of game sessions.
//
// The session engine only sees Recorder. Everything behind it works on a single
// aggregate Book per owner (player), read and written as a whole:
//
//	Load(owner) -> set/overwrite Book[levelKey] -> Save(owner, Book)
//
// Concurrent writers for the same owner are not coordinated; last write wins.
package progress

import (
	"context"
	"sort"
	"time"
)

// Record is the persisted outcome of one game for one owner.
type Record struct {
	LevelKey  string    `json:"levelKey"`
	Completed bool      `json:"completed"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Book is the aggregate keyed mapping levelKey -> Record.
type Book map[string]Record

// Completed reports whether levelKey has a completed record.
func (b Book) Completed(levelKey string) bool {
	r, ok := b[levelKey]
	return ok && r.Completed
}

// Keys returns the level keys in lexical order.
func (b Book) Keys() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (b Book) clone() Book {
	out := make(Book, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Recorder is what the engine calls exactly once when a session finishes.
type Recorder interface {
	RecordCompletion(ctx context.Context, levelKey string, rec Record) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, levelKey string, rec Record) error

func (f RecorderFunc) RecordCompletion(ctx context.Context, levelKey string, rec Record) error {
	return f(ctx, levelKey, rec)
}

// Store loads and saves whole Books. Implementations: memory, SQLite, Redis.
type Store interface {
	// Load returns the owner's Book; an owner with no history gets an empty Book.
	Load(ctx context.Context, owner string) (Book, error)
	// Save replaces the owner's Book.
	Save(ctx context.Context, owner string, b Book) error
}

// Claimer is implemented by stores that can move a Book between owners natively.
type Claimer interface {
	Claim(ctx context.Context, fromOwner, toOwner string) error
}

// Claim folds fromOwner's Book into toOwner's, keeping toOwner's entries on conflict.
// Stores implementing Claimer do it themselves (and drop the source Book);
// otherwise the merge goes through Load/Save and the source is left in place.
func Claim(ctx context.Context, st Store, fromOwner, toOwner string) error {
	if c, ok := st.(Claimer); ok {
		return c.Claim(ctx, fromOwner, toOwner)
	}
	if fromOwner == "" || toOwner == "" || fromOwner == toOwner {
		return nil
	}
	from, err := st.Load(ctx, fromOwner)
	if err != nil || len(from) == 0 {
		return err
	}
	to, err := st.Load(ctx, toOwner)
	if err != nil {
		return err
	}
	if to == nil {
		to = Book{}
	}
	for k, v := range from {
		if _, ok := to[k]; !ok {
			to[k] = v
		}
	}
	return st.Save(ctx, toOwner, to)
}
