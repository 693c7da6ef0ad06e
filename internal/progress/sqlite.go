package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps one JSON-encoded Book per owner in the progress_books table
// (created by the 002 migration).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the owner's Book, or an empty Book if none is stored.
func (s *SQLiteStore) Load(ctx context.Context, owner string) (Book, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT book_json FROM progress_books WHERE owner_id=?`, owner,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress book: %w", err)
	}
	b := Book{}
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("decode progress book: %w", err)
	}
	return b, nil
}

// Save upserts the owner's Book.
func (s *SQLiteStore) Save(ctx context.Context, owner string, b Book) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode progress book: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO progress_books (owner_id, book_json, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(owner_id) DO UPDATE SET
            book_json = excluded.book_json,
            updated_at = excluded.updated_at`,
		owner, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert progress book: %w", err)
	}
	return nil
}

// Claim moves an anonymous owner's Book onto a user account, merging entries.
// Entries already on the account win.
func (s *SQLiteStore) Claim(ctx context.Context, fromOwner, toOwner string) error {
	if fromOwner == "" || toOwner == "" || fromOwner == toOwner {
		return nil
	}
	from, err := s.Load(ctx, fromOwner)
	if err != nil || len(from) == 0 {
		return err
	}
	to, err := s.Load(ctx, toOwner)
	if err != nil {
		return err
	}
	for k, v := range from {
		if _, ok := to[k]; !ok {
			to[k] = v
		}
	}
	if err := s.Save(ctx, toOwner, to); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress_books WHERE owner_id=?`, fromOwner); err != nil {
		return fmt.Errorf("delete claimed progress: %w", err)
	}
	return nil
}
