package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const hudWriteWait = 5 * time.Second

// handleHUDStream upgrades to a websocket and pushes a HUD frame on every
// clock tick or player action until the session finishes.
func (s *Server) handleHUDStream(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || !s.owns(r, e.OwnerID) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", e.ID).Msg("hud upgrade")
		return
	}
	defer conn.Close()

	updates, cancel := e.Runner.Subscribe()
	defer cancel()

	// The client never sends anything useful; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for h := range updates {
		_ = conn.SetWriteDeadline(time.Now().Add(hudWriteWait))
		if err := conn.WriteJSON(h); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"),
		time.Now().Add(hudWriteWait))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.cfg.IsDevelopment() || origin == s.cfg.ClientOrigin
}
