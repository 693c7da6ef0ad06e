package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/session"
)

func newEntry(t *testing.T, id string, created time.Time) *Entry {
	t.Helper()
	r := session.NewRunner(session.New("math-quiz", session.Config{}), time.Hour, nil)
	chs := []challenge.Challenge{{Answer: challenge.Text{Value: "a"}, Difficulty: 1}}
	require.NoError(t, r.Start(context.Background(), chs, 60))
	t.Cleanup(r.Close)
	return &Entry{ID: id, OwnerID: "anon", GameKey: "math-quiz", CreatedAt: created, Runner: r}
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	e := newEntry(t, "s1", time.Now())

	require.NoError(t, s.Save(ctx, e))
	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, e, got)

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "missing"))

	assert.Error(t, s.Save(ctx, &Entry{}))
}

func TestSweepDropsOnlyOldFinished(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	old := time.Now().Add(-time.Hour)

	finished := newEntry(t, "finished", old)
	finished.Runner.Finish(ctx)
	running := newEntry(t, "running", old)
	fresh := newEntry(t, "fresh", time.Now())
	fresh.Runner.Finish(ctx)

	for _, e := range []*Entry{finished, running, fresh} {
		require.NoError(t, s.Save(ctx, e))
	}

	n, abandoned := s.Sweep(ctx, time.Now().Add(-time.Minute))
	assert.Equal(t, 1, n)
	assert.Empty(t, abandoned)
	_, err := s.Get(ctx, "finished")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "running")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSweepAbandonsIdleResolvedSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	yesterday := time.Now().Add(-24 * time.Hour)
	var recorded int
	sess := session.New("math-quiz", session.Config{
		Now: func() time.Time { return yesterday },
		Recorder: progress.RecorderFunc(func(context.Context, string, progress.Record) error {
			recorded++
			return nil
		}),
	})
	r := session.NewRunner(sess, 5*time.Millisecond, nil)
	chs := []challenge.Challenge{
		{Answer: challenge.Text{Value: "a"}, Difficulty: 1},
		{Answer: challenge.Text{Value: "b"}, Difficulty: 1},
	}
	require.NoError(t, r.Start(ctx, chs, 60))
	_, h, err := r.Submit(challenge.Candidate{Text: "a"})
	require.NoError(t, err)
	require.Equal(t, session.StatusRoundResolved, h.Status)

	stale := &Entry{ID: "stale", OwnerID: "anon", GameKey: "math-quiz", CreatedAt: yesterday, Runner: r}
	require.NoError(t, s.Save(ctx, stale))
	live := newEntry(t, "live", yesterday)
	require.NoError(t, s.Save(ctx, live))

	// The clock is paused on the resolved round, so it cannot time out by itself.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, session.StatusRoundResolved, r.HUD().Status)

	n, abandoned := s.Sweep(ctx, time.Now().Add(-time.Minute))
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"stale"}, abandoned)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("idle session was not torn down")
	}
	assert.Equal(t, session.StatusFinished, r.HUD().Status)
	assert.Zero(t, recorded)

	_, err = s.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestCloseAbandonsEverything(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	e := newEntry(t, "s1", time.Now())
	require.NoError(t, s.Save(ctx, e))

	s.Close()
	<-e.Runner.Done()
	assert.Equal(t, session.StatusFinished, e.Runner.HUD().Status)
	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}
