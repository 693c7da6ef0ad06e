// internal/httpserver/server.go
//
// HTTP server wiring for the Brain Arcade backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, metrics).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Catalog + session endpoints (optional auth): /games, /sessions/*, /progress.
//   - Daily leaderboard (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /plays/mine.
//   - Graceful shutdown that abandons every live session.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests, who are identified by an anonymous cookie.
//   - The HUD websocket is mounted outside the request timeout.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/brainarcade/internal/catalog"
	"github.com/robalobadob/brainarcade/internal/config"
	"github.com/robalobadob/brainarcade/internal/daily"
	"github.com/robalobadob/brainarcade/internal/metrics"
	"github.com/robalobadob/brainarcade/internal/progress"
	"github.com/robalobadob/brainarcade/internal/store"
)

// Server bundles router, live session registry, progress store and DB handle.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	db       *sql.DB
	catalog  *catalog.Catalog
	sessions store.Store
	progress progress.Store
	daily    *daily.Store
	now      func() time.Time
	http     *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, db *sql.DB, cat *catalog.Catalog, sessions store.Store, prog progress.Store) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		db:       db,
		catalog:  cat,
		sessions: sessions,
		progress: prog,
		daily:    daily.NewStore(db),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.http = &http.Server{
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(metrics.Middleware)
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "brainarcade",
			"endpoints": []string{
				"/health", "/metrics", "GET /games", "POST /games/{key}/sessions",
				"/sessions/{id}/*", "/progress", "/daily/leaderboard", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", metrics.Handler())

	// Long-lived: no request timeout.
	s.r.With(s.withOptionalAuth()).Get("/sessions/{id}/hud", s.handleHUDStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// Games + sessions: OPTIONAL AUTH (guests can play)
		s.mountGames(r.With(s.withOptionalAuth()))

		// Daily leaderboard: OPTIONAL AUTH
		s.mountDaily(r.With(s.withOptionalAuth()))

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr. It returns nil after Shutdown, including
// a Shutdown that ran before Start.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and abandons live sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.sessions.Close()
	return err
}

// RunJanitor drops finished sessions older than the configured TTL, and abandons
// sessions idle for longer than it, until ctx ends.
func (s *Server) RunJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one janitor pass; idle sessions it abandons get their plays row closed.
func (s *Server) sweep(ctx context.Context) {
	n, abandoned := s.sessions.Sweep(ctx, s.now().Add(-s.cfg.SessionTTL))
	for _, id := range abandoned {
		s.markAbandoned(ctx, id)
	}
	if n > 0 {
		log.Debug().Int("swept", n).Int("abandoned", len(abandoned)).Msg("sessions removed")
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ responses -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
