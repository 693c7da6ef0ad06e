// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
//   - GET /daily/status?game=      → whether the caller already played today
//   - GET /daily/leaderboard?game= → top 20 results for today (or ?date=YYYY-MM-DD)
//
// A daily run is started through POST /games/{key}/sessions with {"daily":true};
// it plays the game's challenges in the order derived from date + salt.
// Each owner is recorded once per game per day.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/daily"
)

func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/status", s.handleDailyStatus)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

type statusRes struct {
	Date   string `json:"date"`
	Game   string `json:"game"`
	Played bool   `json:"played"`
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Game string        `json:"game"`
	Top  []daily.LBRow `json:"top"`
}

func (s *Server) handleDailyStatus(w http.ResponseWriter, r *http.Request) {
	game, ok := s.dailyGame(w, r)
	if !ok {
		return
	}
	date := daily.DateKey(s.now())
	played, err := s.daily.AlreadyPlayed(r.Context(), s.ownerID(w, r), game, date)
	if err != nil {
		log.Error().Err(err).Msg("daily status")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(statusRes{Date: date, Game: game, Played: played})
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	game, ok := s.dailyGame(w, r)
	if !ok {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), game, date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Game: game, Top: rows})
}

// dailyGame reads ?game= and checks it names a catalog entry.
func (s *Server) dailyGame(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.URL.Query().Get("game"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "game_required")
		return "", false
	}
	if _, err := s.catalog.Get(key); err != nil {
		writeSessionError(w, err)
		return "", false
	}
	return key, true
}
