package daily

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/brainarcade/internal/progress"
)

// Result is one player's daily run of one game.
type Result struct {
	OwnerID   string `json:"ownerId"`
	GameKey   string `json:"gameKey"`
	Date      string `json:"date"`
	Score     int    `json:"score"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store reads and writes daily_results (003 migration).
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether owner has a result for gameKey on date.
func (s *Store) AlreadyPlayed(ctx context.Context, ownerID, gameKey, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE owner_id=? AND game_key=? AND date=?`,
		ownerID, gameKey, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r. A second result for the same owner/game/date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results (owner_id, game_key, date, score, elapsed_ms)
        VALUES (?, ?, ?, ?, ?)`,
		r.OwnerID, r.GameKey, r.Date, r.Score, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert daily result: %w", err)
	}
	return nil
}

// LBRow is one leaderboard line.
type LBRow struct {
	OwnerID   string `json:"ownerId"`
	Score     int    `json:"score"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Leaderboard returns the best results for gameKey on date:
// highest score first, then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, gameKey, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT owner_id, score, elapsed_ms
        FROM daily_results
        WHERE game_key=? AND date=?
        ORDER BY score DESC, elapsed_ms ASC, created_at ASC
        LIMIT ?`, gameKey, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Score, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recorder returns a progress.Recorder that files completed daily runs.
// Incomplete runs (timeouts, early finishes) do not reach the leaderboard.
func (s *Store) Recorder(ownerID, date string, elapsed func() time.Duration) progress.Recorder {
	return progress.RecorderFunc(func(ctx context.Context, levelKey string, rec progress.Record) error {
		if !rec.Completed {
			return nil
		}
		var ms int64
		if elapsed != nil {
			ms = elapsed().Milliseconds()
		}
		return s.InsertResult(ctx, Result{
			OwnerID:   ownerID,
			GameKey:   levelKey,
			Date:      date,
			Score:     rec.Score,
			ElapsedMs: ms,
		})
	})
}
