// internal/session/runner.go
//
// Runner drives one Session from concurrent callers (HTTP handlers, websocket
// readers) and a single time.Ticker.
//
// Timer lifecycle:
//   Start          → ticker created, loop goroutine launched
//   round resolved → ticker stopped (clock paused while the result is shown)
//   Advance        → ticker reset (clock resumes)
//   finished/Close → ticker stopped, done closed, loop goroutine returns
//
// Every event takes the same mutex, so the Session sees one event at a time.

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/challenge"
)

// DefaultTick is the production tick cadence.
const DefaultTick = time.Second

// StopFunc is called once when the session reaches StatusFinished, on any path.
type StopFunc func(s *Session)

// Runner owns a Session and its clock.
type Runner struct {
	mu       sync.Mutex
	s        *Session
	interval time.Duration
	onStop   StopFunc

	ticker   *time.Ticker
	ctx      context.Context // for Recorder calls made from the ticker
	done     chan struct{}
	stopOnce sync.Once

	subs    map[int]chan HUD
	nextSub int

	lastActive time.Time // last player action; clock ticks do not count
}

// NewRunner wraps s. interval <= 0 uses DefaultTick. onStop may be nil.
func NewRunner(s *Session, interval time.Duration, onStop StopFunc) *Runner {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Runner{
		s:        s,
		interval: interval,
		onStop:   onStop,
		ctx:      context.Background(),
		done:     make(chan struct{}),
		subs:     make(map[int]chan HUD),
	}
}

// Start starts the session and its clock. ctx only scopes values (logging,
// tracing) for later Recorder calls; its cancellation is ignored.
func (r *Runner) Start(ctx context.Context, challenges []challenge.Challenge, timeLimitSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.s.Start(challenges, timeLimitSeconds); err != nil {
		return err
	}
	r.ctx = context.WithoutCancel(ctx)
	r.lastActive = r.s.cfg.Now()
	r.ticker = time.NewTicker(r.interval)
	go r.loop(r.ticker.C)
	r.publish()
	return nil
}

func (r *Runner) loop(ticks <-chan time.Time) {
	for {
		select {
		case <-r.done:
			return
		case <-ticks:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A tick buffered before a pause can still arrive; only Active consumes time.
	if r.s.Status() != StatusActive {
		return
	}
	if err := r.s.Tick(r.ctx); err != nil {
		log.Warn().Err(err).Str("level", r.s.LevelKey()).Msg("tick rejected")
		return
	}
	r.publish()
	r.afterEvent(StatusActive)
}

// Submit forwards to Session.SubmitAnswer.
func (r *Runner) Submit(c challenge.Candidate) (SubmitResult, HUD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = r.s.cfg.Now()
	prev := r.s.Status()
	res, err := r.s.SubmitAnswer(c)
	if err != nil {
		return SubmitResult{}, r.s.HUD(), err
	}
	r.publish()
	r.afterEvent(prev)
	return res, r.s.HUD(), nil
}

// Reveal forwards to Session.RevealAssist.
func (r *Runner) Reveal(index int) (challenge.Assist, HUD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = r.s.cfg.Now()
	a, err := r.s.RevealAssist(index)
	if err != nil {
		return challenge.Assist{}, r.s.HUD(), err
	}
	r.publish()
	return a, r.s.HUD(), nil
}

// Advance forwards to Session.Advance and resumes the clock on a new round.
func (r *Runner) Advance(ctx context.Context) (HUD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = r.s.cfg.Now()
	prev := r.s.Status()
	if err := r.s.Advance(ctx); err != nil {
		return r.s.HUD(), err
	}
	r.publish()
	r.afterEvent(prev)
	return r.s.HUD(), nil
}

// Finish ends the session and records it.
func (r *Runner) Finish(ctx context.Context) HUD {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.s.Status()
	r.s.Finish(ctx)
	r.publish()
	r.afterEvent(prev)
	return r.s.HUD()
}

// Close abandons the session without recording and releases the clock.
// Safe to call more than once and after Finish.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.s.Abandon()
	r.publish()
	r.shutdown()
}

// HUD returns a snapshot.
func (r *Runner) HUD() HUD {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.HUD()
}

// Inspect runs fn with exclusive access to the session. fn must not retain s.
func (r *Runner) Inspect(fn func(s *Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.s)
}

// LastActive is when the player last started, answered, revealed or advanced.
func (r *Runner) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Done is closed once the session is finished and the clock is gone.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Subscribe returns a channel of HUD snapshots, primed with the current one.
// Slow readers only ever see the latest snapshot. The channel is closed when
// the session stops or cancel is called.
func (r *Runner) Subscribe() (<-chan HUD, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan HUD, 1)
	ch <- r.s.HUD()
	select {
	case <-r.done:
		close(ch)
		return ch, func() {}
	default:
	}

	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// ----------------------------- internals -----------------------------------

// afterEvent aligns the clock with a status change. Caller holds mu.
func (r *Runner) afterEvent(prev Status) {
	now := r.s.Status()
	switch {
	case now == StatusFinished:
		r.shutdown()
	case now == StatusRoundResolved && prev == StatusActive:
		r.ticker.Stop()
	case now == StatusActive && prev == StatusRoundResolved:
		select {
		case <-r.ticker.C:
		default:
		}
		r.ticker.Reset(r.interval)
	}
}

// shutdown stops the ticker, closes done and every subscriber. Caller holds mu.
func (r *Runner) shutdown() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
		for id, c := range r.subs {
			delete(r.subs, id)
			close(c)
		}
		if r.onStop != nil {
			r.onStop(r.s)
		}
	})
}

// publish pushes the latest HUD to subscribers without blocking. Caller holds mu.
func (r *Runner) publish() {
	h := r.s.HUD()
	for _, c := range r.subs {
		select {
		case <-c: // drop stale snapshot
		default:
		}
		select {
		case c <- h:
		default:
		}
	}
}
