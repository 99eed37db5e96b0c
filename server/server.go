// Package server exposes a running engine over HTTP for observers and
// remote controls.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/storage"
)

// Engine is the part of the game engine the server drives. Every method
// must be safe to call from request goroutines.
type Engine interface {
	Status() game.Status
	Champion() (game.Champion, bool)
	Start()
	Pause()
	End()
	Flap()
	SetPipeGap(gap int) error
}

// Leaderboard lists finished human games.
type Leaderboard interface {
	TopPlayers(ctx context.Context, limit int) ([]storage.PlayerRecord, error)
}

// NewRouter configures all routes. board may be nil, which disables
// the leaderboard endpoint.
func NewRouter(engine Engine, board Leaderboard, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{engine: engine, board: board, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/state", h.getState)
		r.Get("/agents", h.getAgents)
		r.Get("/pipes", h.getPipes)
		r.Get("/best-network", h.getBestNetwork)
		if board != nil {
			r.Get("/leaderboard", h.getLeaderboard)
		}

		r.Post("/start", h.command(engine.Start))
		r.Post("/pause", h.command(engine.Pause))
		r.Post("/end", h.command(engine.End))
		r.Post("/flap", h.command(engine.Flap))
		r.Post("/pipe-gap", h.setPipeGap)
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
