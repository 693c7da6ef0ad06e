package progress

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tracker records completions for a single owner with read-merge-write.
type Tracker struct {
	store Store
	owner string
	now   func() time.Time
}

// NewTracker binds store to owner.
func NewTracker(store Store, owner string) *Tracker {
	return &Tracker{store: store, owner: owner, now: func() time.Time { return time.Now().UTC() }}
}

// Owner returns the owner this tracker writes for.
func (t *Tracker) Owner() string { return t.owner }

// RecordCompletion loads the owner's Book, overwrites levelKey and saves it back.
func (t *Tracker) RecordCompletion(ctx context.Context, levelKey string, rec Record) error {
	book, err := t.store.Load(ctx, t.owner)
	if err != nil {
		return fmt.Errorf("load progress for %s: %w", t.owner, err)
	}
	if book == nil {
		book = Book{}
	}
	rec.LevelKey = levelKey
	if rec.Timestamp.IsZero() {
		rec.Timestamp = t.now()
	}
	book[levelKey] = rec
	if err := t.store.Save(ctx, t.owner, book); err != nil {
		return fmt.Errorf("save progress for %s: %w", t.owner, err)
	}
	return nil
}

// Book returns the owner's current Book (used for listing and gating).
func (t *Tracker) Book(ctx context.Context) (Book, error) {
	b, err := t.store.Load(ctx, t.owner)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = Book{}
	}
	return b, nil
}

// Tee fans a completion out to several recorders in order.
// Every recorder is called; the errors are joined.
func Tee(recorders ...Recorder) Recorder {
	return RecorderFunc(func(ctx context.Context, levelKey string, rec Record) error {
		var errs []error
		for _, r := range recorders {
			if r == nil {
				continue
			}
			if err := r.RecordCompletion(ctx, levelKey, rec); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
