// internal/session/session.go
//
// Core state machine for one timed play-through of an ordered challenge set.
// Responsibilities:
//   - Validate and start a session (challenges fixed, counters reset).
//   - Apply ticks, answer submissions, assist reveals, advances and finish.
//   - Score rounds through the configured scoring.Policy.
//   - Emit exactly one progress.Record when the session finishes.
//
// State transitions:
//   not_started → active → round_resolved → active … → finished
//   active → finished when remainingTime reaches 0 (the open round is not scored).
//
// Notes:
//   - Session is not safe for concurrent use; Runner serialises events onto it.
//   - Persistence is best-effort: a failing Recorder is logged, never surfaced.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/scoring"
)

// Session holds the mutable state of one play-through.
type Session struct {
	levelKey string
	cfg      Config

	challenges []challenge.Challenge
	current    int
	score      int
	streak     int
	remaining  int
	timeLimit  int
	status     Status

	attempts    int              // on current round
	revealed    map[int]struct{} // assists revealed on current round
	roundPoints int              // score delta accumulated on current round

	outcomes  []RoundOutcome
	completed bool
	recorded  bool
	startedAt time.Time
	endedAt   time.Time
}

// New constructs a session for levelKey in StatusNotStarted.
func New(levelKey string, cfg Config) *Session {
	if cfg.Policy == nil {
		cfg.Policy = scoring.DefaultFlat()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{levelKey: levelKey, cfg: cfg, status: StatusNotStarted}
}

// Start fixes the challenge set and time limit and moves to StatusActive.
// The slice is copied; later changes by the caller do not leak in.
func (s *Session) Start(challenges []challenge.Challenge, timeLimitSeconds int) error {
	if s.status != StatusNotStarted {
		return fmt.Errorf("%w: start in %s", ErrInvalidState, s.status)
	}
	if len(challenges) == 0 {
		return fmt.Errorf("%w: no challenges", ErrInvalidConfiguration)
	}
	if timeLimitSeconds <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidConfiguration, timeLimitSeconds)
	}
	for i := range challenges {
		if err := challenges[i].Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}

	s.challenges = append([]challenge.Challenge(nil), challenges...)
	s.current = 0
	s.score = 0
	s.streak = 0
	s.timeLimit = timeLimitSeconds
	s.remaining = timeLimitSeconds
	s.outcomes = nil
	s.completed = false
	s.recorded = false
	s.startedAt = s.cfg.Now()
	s.resetRound()
	s.status = StatusActive
	return nil
}

// Tick consumes one second. When the clock reaches 0 the session finishes
// immediately and the round in progress is discarded unscored.
func (s *Session) Tick(ctx context.Context) error {
	if s.status != StatusActive {
		return fmt.Errorf("%w: tick in %s", ErrInvalidState, s.status)
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.outcomes = append(s.outcomes, RoundOutcome{
			Index:       s.current,
			TimedOut:    true,
			Attempts:    s.attempts,
			AssistsUsed: len(s.revealed),
		})
		log.Debug().Str("level", s.levelKey).Int("round", s.current).Msg("session timed out")
		s.finish(ctx)
	}
	return nil
}

// SubmitAnswer evaluates c against the current challenge.
//
// Correct:   points from the policy are added and the round resolves.
// Incorrect: the policy's incorrect delta is applied (clamped at its floor) and the
// streak resets; with MaxAttempts set and reached, the round resolves as failed.
func (s *Session) SubmitAnswer(c challenge.Candidate) (SubmitResult, error) {
	if s.status != StatusActive {
		return SubmitResult{}, fmt.Errorf("%w: submit in %s", ErrInvalidState, s.status)
	}
	s.attempts++
	ch := &s.challenges[s.current]
	v := ch.Evaluate(c)
	round := scoring.Round{
		Difficulty:   ch.Difficulty,
		AttemptsUsed: s.attempts,
		AssistsUsed:  len(s.revealed),
		Streak:       s.streak,
	}
	res := SubmitResult{Verdict: v, Attempts: s.attempts}

	if v.Correct {
		points := s.cfg.Policy.Correct(round)
		s.score += points
		s.roundPoints += points
		s.streak++
		res.Points = points
		res.Resolved = true
		s.resolve(true)
		return res, nil
	}

	before := s.score
	s.score = scoring.Clamp(s.cfg.Policy, s.score+s.cfg.Policy.Incorrect(round))
	res.Points = s.score - before
	s.roundPoints += res.Points
	s.streak = 0

	if s.cfg.MaxAttempts > 0 && s.attempts >= s.cfg.MaxAttempts {
		res.Resolved = true
		res.Failed = true
		s.resolve(false)
	}
	return res, nil
}

// RevealAssist returns assist index of the current challenge. The first reveal
// charges the assist's cost unless the policy prices assists itself; revealing
// it again is free and returns the same content.
func (s *Session) RevealAssist(index int) (challenge.Assist, error) {
	if s.status != StatusActive {
		return challenge.Assist{}, fmt.Errorf("%w: reveal assist in %s", ErrInvalidState, s.status)
	}
	a, err := s.challenges[s.current].Assist(index)
	if err != nil {
		return challenge.Assist{}, err
	}
	if _, seen := s.revealed[index]; !seen {
		s.revealed[index] = struct{}{}
		if a.Cost > 0 && !scoring.ChargesAssists(s.cfg.Policy) {
			before := s.score
			s.score = scoring.Clamp(s.cfg.Policy, s.score-a.Cost)
			s.roundPoints += s.score - before
		}
	}
	return a, nil
}

// Advance moves past a resolved round: to the next challenge, or to
// StatusFinished after the last one.
func (s *Session) Advance(ctx context.Context) error {
	if s.status != StatusRoundResolved {
		return fmt.Errorf("%w: advance in %s", ErrInvalidState, s.status)
	}
	if s.current+1 < len(s.challenges) {
		s.current++
		s.resetRound()
		s.status = StatusActive
		return nil
	}
	s.completed = true
	s.finish(ctx)
	return nil
}

// Finish ends the session. It is idempotent and records progress at most once.
// Finishing while the last round is resolved counts as completing the game.
func (s *Session) Finish(ctx context.Context) {
	if s.status == StatusFinished {
		return
	}
	if s.status == StatusRoundResolved && s.current == len(s.challenges)-1 {
		s.completed = true
	}
	s.finish(ctx)
}

// Abandon stops the session without recording anything. Used on teardown
// (player navigated away, server shutting down).
func (s *Session) Abandon() {
	if s.status == StatusFinished {
		return
	}
	s.recorded = true
	s.status = StatusFinished
	s.endedAt = s.cfg.Now()
}

func (s *Session) finish(ctx context.Context) {
	wasStarted := s.status != StatusNotStarted
	s.status = StatusFinished
	s.endedAt = s.cfg.Now()
	if !wasStarted || s.recorded {
		return
	}
	s.recorded = true
	if s.cfg.Recorder == nil {
		return
	}
	rec := progress.Record{
		LevelKey:  s.levelKey,
		Completed: s.completed,
		Score:     s.score,
		Timestamp: s.endedAt.UTC(),
	}
	if err := s.cfg.Recorder.RecordCompletion(ctx, s.levelKey, rec); err != nil {
		log.Warn().Err(err).Str("level", s.levelKey).Msg("record completion")
	}
}

func (s *Session) resolve(correct bool) {
	s.outcomes = append(s.outcomes, RoundOutcome{
		Index:       s.current,
		Correct:     correct,
		Points:      s.roundPoints,
		Attempts:    s.attempts,
		AssistsUsed: len(s.revealed),
	})
	s.status = StatusRoundResolved
}

func (s *Session) resetRound() {
	s.attempts = 0
	s.revealed = make(map[int]struct{})
	s.roundPoints = 0
}

// ------------------------------ accessors ----------------------------------

// AssistCost is what revealing a costs the player under this session's policy.
func (s *Session) AssistCost(a challenge.Assist) int {
	if c, ok := s.cfg.Policy.(scoring.AssistCharger); ok && c.AssistCharge() > 0 {
		return c.AssistCharge()
	}
	return a.Cost
}

// LevelKey is the game identifier the session records progress under.
func (s *Session) LevelKey() string { return s.levelKey }

// Status reports the lifecycle state.
func (s *Session) Status() Status { return s.status }

// Score is the running total.
func (s *Session) Score() int { return s.score }

// CurrentIndex is the 0-based index of the current (or last) challenge.
func (s *Session) CurrentIndex() int { return s.current }

// Remaining is the remaining time in seconds.
func (s *Session) Remaining() int { return s.remaining }

// Completed reports whether the player got through every round.
func (s *Session) Completed() bool { return s.completed }

// Streak is the number of consecutive correct resolutions.
func (s *Session) Streak() int { return s.streak }

// Outcomes returns a copy of the per-round outcomes so far.
func (s *Session) Outcomes() []RoundOutcome {
	return append([]RoundOutcome(nil), s.outcomes...)
}

// Current returns a copy of the current challenge, or false before Start.
func (s *Session) Current() (challenge.Challenge, bool) {
	if len(s.challenges) == 0 {
		return challenge.Challenge{}, false
	}
	return s.challenges[s.current], true
}

// Elapsed is the wall time from Start to finish (or to now while running).
func (s *Session) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	if s.endedAt.IsZero() {
		return s.cfg.Now().Sub(s.startedAt)
	}
	return s.endedAt.Sub(s.startedAt)
}

// Revealed returns the assist indexes revealed on the current round, in order.
func (s *Session) Revealed() []int {
	out := make([]int, 0, len(s.revealed))
	for i := range s.challenges[s.current].Assists {
		if _, ok := s.revealed[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// HUD returns the status-display values.
func (s *Session) HUD() HUD {
	return HUD{
		CurrentRound:  s.current,
		TotalRounds:   len(s.challenges),
		Score:         s.score,
		RemainingTime: s.remaining,
		Status:        s.status,
		Streak:        s.streak,
		Attempts:      s.attempts,
	}
}
