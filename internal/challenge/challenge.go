// internal/challenge/challenge.go
//
// Operations on a single challenge.
// Responsibilities:
//   - Evaluate a candidate with the challenge's comparison rule (pure).
//   - Look up an assist by index (bounds checked).
//   - Validate a challenge before a session accepts it.
//
// Notes:
//   - A Challenge is never mutated once a session has started; which assists were
//     revealed is session bookkeeping, not challenge state.

package challenge

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when an assist index is outside the challenge's assists.
	ErrOutOfRange = errors.New("assist index out of range")

	// ErrInvalidChallenge is returned by Validate.
	ErrInvalidChallenge = errors.New("invalid challenge")
)

// Evaluate applies the challenge's comparison rule to c.
// A challenge without an answer rejects everything.
func (c *Challenge) Evaluate(cand Candidate) Verdict {
	if c.Answer == nil {
		return Verdict{}
	}
	return c.Answer.Match(cand)
}

// Assist returns the assist at index.
func (c *Challenge) Assist(index int) (Assist, error) {
	if index < 0 || index >= len(c.Assists) {
		return Assist{}, fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, len(c.Assists))
	}
	return c.Assists[index], nil
}

// Validate checks the invariants a session relies on.
func (c *Challenge) Validate() error {
	if c.Answer == nil {
		return fmt.Errorf("%w: challenge %d has no answer", ErrInvalidChallenge, c.ID)
	}
	if c.Difficulty <= 0 {
		return fmt.Errorf("%w: challenge %d difficulty must be positive", ErrInvalidChallenge, c.ID)
	}
	for i, a := range c.Assists {
		if a.Cost < 0 {
			return fmt.Errorf("%w: challenge %d assist %d has negative cost", ErrInvalidChallenge, c.ID, i)
		}
	}
	return nil
}
