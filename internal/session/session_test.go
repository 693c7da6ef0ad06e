package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/scoring"
)

type captureRecorder struct {
	mu      sync.Mutex
	records []progress.Record
	err     error
}

func (c *captureRecorder) RecordCompletion(_ context.Context, levelKey string, rec progress.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return c.err
}

func (c *captureRecorder) all() []progress.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]progress.Record(nil), c.records...)
}

func textChallenges(n int) []challenge.Challenge {
	out := make([]challenge.Challenge, n)
	for i := range out {
		out[i] = challenge.Challenge{
			ID:         i,
			Prompt:     challenge.Prompt{Kind: "text", Text: "say yes"},
			Answer:     challenge.Text{Value: "yes"},
			Difficulty: 1,
			Assists: []challenge.Assist{
				{Kind: "hint", Content: "starts with y", Cost: 3},
				{Kind: "key", Content: "y-e-s", Cost: 0},
			},
		}
	}
	return out
}

var (
	right = challenge.Candidate{Text: " YES "}
	wrong = challenge.Candidate{Text: "no"}
)

func TestStartRejectsBadConfiguration(t *testing.T) {
	s := New("math-quiz", Config{})
	err := s.Start(nil, 60)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, StatusNotStarted, s.Status())

	err = s.Start([]challenge.Challenge{}, 60)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	err = s.Start(textChallenges(1), 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	bad := textChallenges(1)
	bad[0].Difficulty = 0
	assert.ErrorIs(t, s.Start(bad, 60), ErrInvalidConfiguration)
}

func TestStartTwiceIsInvalidState(t *testing.T) {
	s := New("math-quiz", Config{})
	require.NoError(t, s.Start(textChallenges(1), 60))
	assert.ErrorIs(t, s.Start(textChallenges(1), 60), ErrInvalidState)
}

func TestStartThenFinishRecordsExactlyOnce(t *testing.T) {
	rec := &captureRecorder{}
	s := New("caesar-cipher", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(3), 60))

	s.Finish(context.Background())
	s.Finish(context.Background())

	require.Len(t, rec.all(), 1)
	got := rec.all()[0]
	assert.Equal(t, "caesar-cipher", got.LevelKey)
	assert.False(t, got.Completed)
	assert.Equal(t, 0, got.Score)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, StatusFinished, s.Status())
}

func TestFinishBeforeStartDoesNotRecord(t *testing.T) {
	rec := &captureRecorder{}
	s := New("caesar-cipher", Config{Recorder: rec})
	s.Finish(context.Background())
	assert.Equal(t, StatusFinished, s.Status())
	assert.Empty(t, rec.all())
}

func TestTickDecrementsAndTimesOut(t *testing.T) {
	ctx := context.Background()
	rec := &captureRecorder{}
	s := New("memory-match", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(2), 3))

	require.NoError(t, s.Tick(ctx))
	assert.Equal(t, 2, s.Remaining())
	assert.Equal(t, StatusActive, s.Status())

	require.NoError(t, s.Tick(ctx))
	assert.Equal(t, 1, s.Remaining())
	assert.Equal(t, StatusActive, s.Status())

	require.NoError(t, s.Tick(ctx))
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, StatusFinished, s.Status())

	assert.ErrorIs(t, s.Tick(ctx), ErrInvalidState)
	assert.Equal(t, 0, s.Remaining())

	require.Len(t, rec.all(), 1)
	assert.False(t, rec.all()[0].Completed)

	out := s.Outcomes()
	require.Len(t, out, 1)
	assert.True(t, out[0].TimedOut)
	assert.Equal(t, 0, out[0].Points)
}

func TestTimeoutDiscardsOpenRound(t *testing.T) {
	ctx := context.Background()
	s := New("caesar-cipher", Config{})
	require.NoError(t, s.Start(textChallenges(2), 1))

	_, err := s.SubmitAnswer(wrong)
	require.NoError(t, err)
	require.NoError(t, s.Tick(ctx))

	assert.Equal(t, StatusFinished, s.Status())
	assert.Equal(t, 0, s.Score())
	_, err = s.SubmitAnswer(right)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTickOutsideActiveIsRejected(t *testing.T) {
	ctx := context.Background()
	s := New("caesar-cipher", Config{})
	assert.ErrorIs(t, s.Tick(ctx), ErrInvalidState)

	require.NoError(t, s.Start(textChallenges(2), 10))
	_, err := s.SubmitAnswer(right)
	require.NoError(t, err)
	require.Equal(t, StatusRoundResolved, s.Status())

	assert.ErrorIs(t, s.Tick(ctx), ErrInvalidState)
	assert.Equal(t, 10, s.Remaining())
}

func TestCorrectSubmissionAddsPolicyPoints(t *testing.T) {
	s := New("caesar-cipher", Config{Policy: scoring.DefaultFlat()})
	ch := textChallenges(1)
	ch[0].Difficulty = 3
	require.NoError(t, s.Start(ch, 60))

	res, err := s.SubmitAnswer(right)
	require.NoError(t, err)
	assert.True(t, res.Verdict.Correct)
	assert.True(t, res.Resolved)
	assert.Equal(t, 350, res.Points)
	assert.Equal(t, 350, s.Score())
	assert.Equal(t, StatusRoundResolved, s.Status())
}

func TestFixedDeltaClampsAtFloor(t *testing.T) {
	s := New("math-quiz", Config{Policy: scoring.FixedDelta{Reward: 5, Penalty: 2, FloorValue: 0}})
	require.NoError(t, s.Start(textChallenges(2), 60))

	res, err := s.SubmitAnswer(wrong)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, 0, res.Points)
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, StatusActive, s.Status())

	_, err = s.SubmitAnswer(right)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Score())

	require.NoError(t, s.Advance(context.Background()))
	res, err = s.SubmitAnswer(wrong)
	require.NoError(t, err)
	assert.Equal(t, -2, res.Points)
	assert.Equal(t, 3, s.Score())
}

func TestMaxAttemptsResolvesAsFailed(t *testing.T) {
	s := New("code-breaker", Config{MaxAttempts: 2})
	require.NoError(t, s.Start(textChallenges(2), 60))

	res, err := s.SubmitAnswer(wrong)
	require.NoError(t, err)
	assert.False(t, res.Resolved)

	res, err = s.SubmitAnswer(wrong)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.True(t, res.Failed)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, StatusRoundResolved, s.Status())

	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, 0, s.HUD().Attempts)

	out := s.Outcomes()
	require.Len(t, out, 1)
	assert.False(t, out[0].Correct)
}

func TestStreakResetsOnIncorrect(t *testing.T) {
	ctx := context.Background()
	s := New("memory-match", Config{Policy: scoring.StreakAmplified{UnitValue: 10, StreakBonus: 5}})
	require.NoError(t, s.Start(textChallenges(4), 60))

	res, _ := s.SubmitAnswer(right)
	assert.Equal(t, 10, res.Points)
	require.NoError(t, s.Advance(ctx))

	res, _ = s.SubmitAnswer(right)
	assert.Equal(t, 15, res.Points)
	assert.Equal(t, 2, s.Streak())
	require.NoError(t, s.Advance(ctx))

	_, _ = s.SubmitAnswer(wrong)
	assert.Equal(t, 0, s.Streak())
	res, _ = s.SubmitAnswer(right)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, 35, s.Score())
}

func TestRevealAssistChargesOnce(t *testing.T) {
	s := New("caesar-cipher", Config{Policy: scoring.FixedDelta{Reward: 10, Penalty: 0, FloorValue: 0}})
	require.NoError(t, s.Start(textChallenges(2), 60))
	_, _ = s.SubmitAnswer(right)
	require.NoError(t, s.Advance(context.Background()))
	require.Equal(t, 10, s.Score())

	first, err := s.RevealAssist(0)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Score())

	second, err := s.RevealAssist(0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 7, s.Score())
	assert.Equal(t, []int{0}, s.Revealed())
	assert.Equal(t, StatusActive, s.Status())
}

func TestRevealAssistErrors(t *testing.T) {
	s := New("caesar-cipher", Config{})
	_, err := s.RevealAssist(0)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.Start(textChallenges(1), 60))
	_, err = s.RevealAssist(2)
	assert.ErrorIs(t, err, challenge.ErrOutOfRange)
	_, err = s.RevealAssist(-1)
	assert.ErrorIs(t, err, challenge.ErrOutOfRange)
	assert.Empty(t, s.Revealed())
}

func TestAssistCostClampsAtFloor(t *testing.T) {
	s := New("math-quiz", Config{Policy: scoring.DefaultFixed()})
	require.NoError(t, s.Start(textChallenges(1), 60))
	_, err := s.RevealAssist(0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Score())
}

func TestFlatPolicyPenalisesAssistsUsed(t *testing.T) {
	ctx := context.Background()
	s := New("caesar-cipher", Config{Policy: scoring.DefaultFlat()})
	require.NoError(t, s.Start(textChallenges(2), 60))
	_, _ = s.SubmitAnswer(right)
	require.NoError(t, s.Advance(ctx))
	require.Equal(t, 150, s.Score())

	// The hint declares a cost of 3; the flat policy's own penalty is the only charge.
	a, err := s.RevealAssist(0)
	require.NoError(t, err)
	require.Equal(t, 3, a.Cost)
	assert.Equal(t, 150, s.Score())
	assert.Equal(t, 25, s.AssistCost(a))

	res, err := s.SubmitAnswer(right)
	require.NoError(t, err)
	assert.Equal(t, 100+50-25, res.Points)
	assert.Equal(t, 150+125, s.Score())
}

func TestAssistCostReportsDeclaredCostWithoutPolicyPenalty(t *testing.T) {
	s := New("math-quiz", Config{Policy: scoring.DefaultFixed()})
	a := textChallenges(1)[0].Assists[0]
	assert.Equal(t, 3, s.AssistCost(a))
}

func TestFiveRoundsCompleteAtLastIndex(t *testing.T) {
	ctx := context.Background()
	rec := &captureRecorder{}
	s := New("puzzle-assembly", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(5), 420))

	for i := 0; i < 5; i++ {
		res, err := s.SubmitAnswer(right)
		require.NoError(t, err)
		require.True(t, res.Resolved)
		require.NoError(t, s.Advance(ctx))
	}

	assert.Equal(t, StatusFinished, s.Status())
	assert.Equal(t, 4, s.CurrentIndex())
	assert.True(t, s.Completed())
	assert.ErrorIs(t, s.Advance(ctx), ErrInvalidState)

	require.Len(t, rec.all(), 1)
	assert.True(t, rec.all()[0].Completed)
	assert.Equal(t, s.Score(), rec.all()[0].Score)
	assert.Len(t, s.Outcomes(), 5)
}

func TestAdvanceOnlyFromRoundResolved(t *testing.T) {
	s := New("shape-match", Config{})
	assert.ErrorIs(t, s.Advance(context.Background()), ErrInvalidState)
	require.NoError(t, s.Start(textChallenges(2), 60))
	assert.ErrorIs(t, s.Advance(context.Background()), ErrInvalidState)
}

func TestFinishOnLastResolvedRoundCountsAsCompleted(t *testing.T) {
	rec := &captureRecorder{}
	s := New("sound-match", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(1), 60))
	_, err := s.SubmitAnswer(right)
	require.NoError(t, err)

	s.Finish(context.Background())
	require.Len(t, rec.all(), 1)
	assert.True(t, rec.all()[0].Completed)
}

func TestRecorderFailureDoesNotChangeOutcome(t *testing.T) {
	rec := &captureRecorder{err: errors.New("disk full")}
	s := New("caesar-cipher", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(1), 60))
	_, err := s.SubmitAnswer(right)
	require.NoError(t, err)
	require.NoError(t, s.Advance(context.Background()))

	assert.Equal(t, StatusFinished, s.Status())
	assert.True(t, s.Completed())
	assert.Len(t, rec.all(), 1)
}

func TestAbandonSkipsRecording(t *testing.T) {
	rec := &captureRecorder{}
	s := New("caesar-cipher", Config{Recorder: rec})
	require.NoError(t, s.Start(textChallenges(1), 60))
	s.Abandon()
	s.Finish(context.Background())
	assert.Equal(t, StatusFinished, s.Status())
	assert.Empty(t, rec.all())
}

func TestStartCopiesChallenges(t *testing.T) {
	ch := textChallenges(2)
	s := New("caesar-cipher", Config{})
	require.NoError(t, s.Start(ch, 60))
	ch[0].Answer = challenge.Text{Value: "changed"}

	res, err := s.SubmitAnswer(right)
	require.NoError(t, err)
	assert.True(t, res.Verdict.Correct)
}

func TestHUDAndElapsed(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New("math-quiz", Config{Now: func() time.Time { return now }})
	require.NoError(t, s.Start(textChallenges(3), 90))

	now = now.Add(4 * time.Second)
	h := s.HUD()
	assert.Equal(t, HUD{CurrentRound: 0, TotalRounds: 3, Score: 0, RemainingTime: 90, Status: StatusActive}, h)
	assert.Equal(t, 4*time.Second, s.Elapsed())
}
