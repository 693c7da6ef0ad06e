// internal/session/types.go
//
// Type definitions for the challenge session engine.
// Defines:
//   - Status:       coarse lifecycle state of a session.
//   - Config:       per-game knobs (policy, attempts, persistence).
//   - HUD:          the values a status display needs.
//   - SubmitResult: what one answer submission did.
//   - RoundOutcome: terminal record of one round.

package session

import (
	"errors"
	"time"

	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/scoring"
)

var (
	// ErrInvalidConfiguration rejects Start (empty challenge set, non-positive time limit,
	// or a challenge that fails validation).
	ErrInvalidConfiguration = errors.New("invalid session configuration")

	// ErrInvalidState means an operation was invoked outside its legal state.
	// It indicates the caller and the engine disagree about where the session is.
	ErrInvalidState = errors.New("invalid session state")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted    Status = "not_started"
	StatusActive        Status = "active"
	StatusRoundResolved Status = "round_resolved"
	StatusFinished      Status = "finished"
)

// Config parameterises a session for one game.
type Config struct {
	Policy      scoring.Policy    // defaults to scoring.DefaultFlat()
	MaxAttempts int               // 0 = unlimited retries per round
	Recorder    progress.Recorder // may be nil
	Now         func() time.Time  // defaults to time.Now
}

// HUD is what the presentation layer renders.
type HUD struct {
	CurrentRound  int    `json:"currentRound"` // 0-based index
	TotalRounds   int    `json:"totalRounds"`
	Score         int    `json:"score"`
	RemainingTime int    `json:"remainingTime"` // seconds
	Status        Status `json:"status"`
	Streak        int    `json:"streak"`
	Attempts      int    `json:"attempts"`
}

// SubmitResult describes the effect of one SubmitAnswer call.
type SubmitResult struct {
	Verdict  challenge.Verdict `json:"verdict"`
	Points   int               `json:"points"`   // score delta actually applied
	Attempts int               `json:"attempts"` // attempts on this round so far
	Resolved bool              `json:"resolved"` // round moved to RoundResolved
	Failed   bool              `json:"failed"`   // resolved by exhausting attempts
}

// RoundOutcome is kept for every round that ended.
type RoundOutcome struct {
	Index       int  `json:"index"`
	Correct     bool `json:"correct"`
	TimedOut    bool `json:"timedOut,omitempty"`
	Points      int  `json:"points"`
	Attempts    int  `json:"attempts"`
	AssistsUsed int  `json:"assistsUsed"`
}
