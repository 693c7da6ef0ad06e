// internal/httpserver/routes_games.go
//
// Catalog, session and progress endpoints.
//   - GET    /games                         → catalog with the caller's progress and gating
//   - POST   /games/{key}/sessions          → start a session (optionally the daily order)
//   - GET    /sessions/{id}                 → HUD, current prompt, assists, round outcomes
//   - POST   /sessions/{id}/answer          → submit {text|items|number}
//   - POST   /sessions/{id}/assists/{index} → reveal an assist
//   - POST   /sessions/{id}/advance         → next round (or finish after the last)
//   - POST   /sessions/{id}/finish          → end now and record
//   - DELETE /sessions/{id}                 → abandon without recording
//   - GET    /progress                      → caller's progress book
//
// A game is unlocked when it is first in catalog order or the game before it
// has a completed record. Sessions are held in memory; only the terminal
// outcome is persisted (progress book, plays row, user stats, daily result).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/catalog"
	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/daily"
	"github.com/robalobadob/brainarcade/internal/metrics"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/session"
	"github.com/robalobadob/brainarcade/internal/store"
)

func (s *Server) mountGames(r chi.Router) {
	r.Get("/games", s.handleListGames)
	r.Post("/games/{key}/sessions", s.handleStartSession)
	r.Get("/progress", s.handleProgress)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleAbandon)
		r.Post("/answer", s.handleAnswer)
		r.Post("/assists/{index}", s.handleAssist)
		r.Post("/advance", s.handleAdvance)
		r.Post("/finish", s.handleFinish)
	})
}

// ------------------------------ payloads -----------------------------------

type gameView struct {
	Key         string           `json:"key"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Kind        string           `json:"kind"`
	Rounds      int              `json:"rounds"`
	TimeLimit   int              `json:"timeLimit"`
	MaxAttempts int              `json:"maxAttempts,omitempty"`
	Policy      string           `json:"policy"`
	Unlocked    bool             `json:"unlocked"`
	Progress    *progress.Record `json:"progress,omitempty"`
}

type startReq struct {
	Daily bool `json:"daily"`
}

type assistView struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Cost     int    `json:"cost"`
	Revealed bool   `json:"revealed"`
	Content  string `json:"content,omitempty"`
}

type sessionView struct {
	SessionID string                 `json:"sessionId"`
	Game      string                 `json:"game"`
	Daily     bool                   `json:"daily"`
	HUD       session.HUD            `json:"hud"`
	Prompt    *challenge.Prompt      `json:"prompt,omitempty"`
	Assists   []assistView           `json:"assists"`
	Outcomes  []session.RoundOutcome `json:"outcomes"`
	Completed bool                   `json:"completed"`
}

type answerRes struct {
	Result session.SubmitResult `json:"result"`
	HUD    session.HUD          `json:"hud"`
}

type assistRes struct {
	Assist challenge.Assist `json:"assist"`
	HUD    session.HUD      `json:"hud"`
}

// ------------------------------ handlers -----------------------------------

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	book, err := progress.NewTracker(s.progress, s.ownerID(w, r)).Book(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load progress")
		writeError(w, http.StatusInternalServerError, "progress_unavailable")
		return
	}
	games := s.catalog.List()
	out := make([]gameView, 0, len(games))
	for _, g := range games {
		v := gameView{
			Key:         g.Key,
			Title:       g.Title,
			Description: g.Description,
			Kind:        g.Kind,
			Rounds:      g.Rounds(),
			TimeLimit:   g.TimeLimit,
			MaxAttempts: g.MaxAttempts,
			Policy:      g.Policy.Name(),
			Unlocked:    unlocked(s.catalog, book, g.Key),
		}
		if rec, ok := book[g.Key]; ok {
			rec := rec
			v.Progress = &rec
		}
		out = append(out, v)
	}
	_ = json.NewEncoder(w).Encode(out)
}

func unlocked(c *catalog.Catalog, book progress.Book, key string) bool {
	prev := c.Previous(key)
	return prev == nil || book.Completed(prev.Key)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req startReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}

	g, err := s.catalog.Get(chi.URLParam(r, "key"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	owner := s.ownerID(w, r)
	tracker := progress.NewTracker(s.progress, owner)
	book, err := tracker.Book(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load progress")
		writeError(w, http.StatusInternalServerError, "progress_unavailable")
		return
	}
	if !unlocked(s.catalog, book, g.Key) {
		writeError(w, http.StatusForbidden, "locked")
		return
	}

	now := s.now()
	date := daily.DateKey(now)
	challenges := g.Challenges()
	if req.Daily {
		played, err := s.daily.AlreadyPlayed(ctx, owner, g.Key, date)
		if err != nil {
			log.Error().Err(err).Msg("daily already played")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if played {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "already_played", "date": date})
			return
		}
		challenges = daily.Shuffle(challenges, now, s.cfg.DailySalt, g.Key)
	}

	id := uuid.NewString()
	var sess *session.Session
	recorders := []progress.Recorder{tracker, s.playRecorder(id, userFrom(ctx), func() int { return resolvedRounds(sess) })}
	if req.Daily {
		recorders = append(recorders, s.daily.Recorder(owner, date, func() time.Duration { return sess.Elapsed() }))
	}
	sess = session.New(g.Key, session.Config{
		Policy:      g.Policy,
		MaxAttempts: g.MaxAttempts,
		Recorder:    progress.Tee(recorders...),
	})
	runner := session.NewRunner(sess, s.cfg.SessionTick, func(fin *session.Session) {
		metrics.SessionFinished(fin.LevelKey(), fin.Completed(), fin.Score())
	})

	if err := runner.Start(ctx, challenges, g.TimeLimit); err != nil {
		writeSessionError(w, err)
		return
	}
	s.insertPlay(ctx, id, owner, g.Key, req.Daily, now)
	metrics.SessionStarted(g.Key, req.Daily)

	entry := &store.Entry{ID: id, OwnerID: owner, GameKey: g.Key, Daily: req.Daily, CreatedAt: now, Runner: runner}
	if err := s.sessions.Save(ctx, entry); err != nil {
		runner.Close()
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("session", id).Str("game", g.Key).Bool("daily", req.Daily).Msg("session started")
	writeJSON(w, http.StatusCreated, viewOf(entry))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(e))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var c challenge.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	res, hud, err := e.Runner.Submit(c)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	metrics.Answer(e.GameKey, res.Verdict.Correct)
	_ = json.NewEncoder(w).Encode(answerRes{Result: res, HUD: hud})
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_index")
		return
	}
	a, hud, err := e.Runner.Reveal(idx)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	metrics.Assist(e.GameKey)
	_ = json.NewEncoder(w).Encode(assistRes{Assist: a, HUD: hud})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	if _, err := e.Runner.Advance(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(e))
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	e.Runner.Finish(r.Context())
	_ = json.NewEncoder(w).Encode(viewOf(e))
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	e.Runner.Close()
	_ = s.sessions.Delete(r.Context(), e.ID)
	s.markAbandoned(r.Context(), e.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	book, err := progress.NewTracker(s.progress, s.ownerID(w, r)).Book(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load progress")
		writeError(w, http.StatusInternalServerError, "progress_unavailable")
		return
	}
	_ = json.NewEncoder(w).Encode(book)
}

// ------------------------------- helpers ------------------------------------

// entryFor loads the session in the URL and checks the caller owns it.
// Sessions of other players look exactly like missing ones.
func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (*store.Entry, bool) {
	e, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || !s.owns(r, e.OwnerID) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return e, true
}

func resolvedRounds(sess *session.Session) int {
	n := 0
	for _, o := range sess.Outcomes() {
		if !o.TimedOut {
			n++
		}
	}
	return n
}

func viewOf(e *store.Entry) sessionView {
	v := sessionView{SessionID: e.ID, Game: e.GameKey, Daily: e.Daily, Assists: []assistView{}}
	e.Runner.Inspect(func(sess *session.Session) {
		v.HUD = sess.HUD()
		v.Outcomes = sess.Outcomes()
		v.Completed = sess.Completed()
		ch, ok := sess.Current()
		if !ok || sess.Status() == session.StatusFinished {
			return
		}
		p := ch.Prompt
		v.Prompt = &p
		revealed := map[int]bool{}
		for _, i := range sess.Revealed() {
			revealed[i] = true
		}
		for i, a := range ch.Assists {
			av := assistView{Index: i, Kind: a.Kind, Cost: sess.AssistCost(a), Revealed: revealed[i]}
			if av.Revealed {
				av.Content = a.Content
			}
			v.Assists = append(v.Assists, av)
		}
	})
	if v.Outcomes == nil {
		v.Outcomes = []session.RoundOutcome{}
	}
	return v
}

// writeSessionError maps engine errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration")
	case errors.Is(err, session.ErrInvalidState):
		log.Warn().Err(err).Msg("client and session out of sync")
		writeError(w, http.StatusConflict, "invalid_state")
	case errors.Is(err, challenge.ErrOutOfRange):
		writeError(w, http.StatusNotFound, "assist_out_of_range")
	case errors.Is(err, catalog.ErrUnknownGame):
		writeError(w, http.StatusNotFound, "unknown_game")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		log.Error().Err(err).Msg("session error")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

// ------------------------------ persistence ---------------------------------

// insertPlay writes the history row for a new session (best effort).
func (s *Server) insertPlay(ctx context.Context, id, owner, game string, isDaily bool, at time.Time) {
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO plays (id, owner_id, game_key, daily, started_at, status)
        VALUES (?,?,?,?,?, 'active')`,
		id, owner, game, isDaily, at.Format(time.RFC3339),
	); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("insert play row")
	}
}

func (s *Server) markAbandoned(ctx context.Context, id string) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE plays SET status='abandoned', finished_at=? WHERE id=? AND status='active'`,
		s.now().Format(time.RFC3339), id,
	); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("abandon play row")
	}
}

// playRecorder closes the plays row and, for accounts, bumps user stats in one tx.
// rounds is called while the session is finishing and reports resolved rounds.
func (s *Server) playRecorder(id string, me *authUser, rounds func() int) progress.Recorder {
	return progress.RecorderFunc(func(ctx context.Context, levelKey string, rec progress.Record) error {
		status := "incomplete"
		if rec.Completed {
			status = "completed"
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		n := 0
		if rounds != nil {
			n = rounds()
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE plays SET status=?, score=?, finished_at=?, rounds=? WHERE id=?`,
			status, rec.Score, rec.Timestamp.UTC().Format(time.RFC3339), n, id,
		); err != nil {
			return err
		}
		if me != nil {
			if err := bumpStats(ctx, tx, me.ID, rec.Completed); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}
