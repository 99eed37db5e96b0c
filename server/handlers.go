package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
)

const defaultLeaderboardLimit = 10

type handler struct {
	engine Engine
	board  Leaderboard
	logger *slog.Logger
}

// getState handles GET /api/state
func (h *handler) getState(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Status()
	respondJSON(w, http.StatusOK, stateResponse{
		State:      s.State,
		Mode:       s.Mode,
		Tick:       s.Tick,
		Generation: s.Generation,
		Alive:      s.Alive,
		Agents:     s.Agents,
		BestScore:  s.BestScore,
		BestIndex:  s.BestIndex,
		PipeGap:    s.PipeGap,
	})
}

type stateResponse struct {
	State      game.RunState `json:"state"`
	Mode       string        `json:"mode"`
	Tick       uint64        `json:"tick"`
	Generation int           `json:"generation"`
	Alive      int           `json:"alive"`
	Agents     int           `json:"agents"`
	BestScore  int           `json:"best_score"`
	BestIndex  int           `json:"best_index"`
	PipeGap    int           `json:"pipe_gap"`
}

// getAgents handles GET /api/agents
func (h *handler) getAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status().Bodies)
}

// getPipes handles GET /api/pipes
func (h *handler) getPipes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status().Pipes)
}

// getBestNetwork handles GET /api/best-network - the champion of the last
// finished generation
func (h *handler) getBestNetwork(w http.ResponseWriter, r *http.Request) {
	champ, ok := h.engine.Champion()
	if !ok {
		respondError(w, http.StatusNotFound, "no generation has finished yet")
		return
	}
	respondJSON(w, http.StatusOK, championResponse{
		RunID:      champ.RunID,
		Generation: champ.Generation,
		Fitness:    champ.Fitness,
		Score:      champ.Score,
		Brain:      champ.Weights,
	})
}

type championResponse struct {
	RunID      string              `json:"run_id"`
	Generation int                 `json:"generation"`
	Fitness    float64             `json:"fitness"`
	Score      int                 `json:"score"`
	Brain      neural.BrainWeights `json:"brain"`
}

// getLeaderboard handles GET /api/leaderboard?limit=N
func (h *handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	players, err := h.board.TopPlayers(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing leaderboard", "error", err)
		respondError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	respondJSON(w, http.StatusOK, players)
}

// command wraps a fire-and-forget engine command. The command is queued and
// applied on the next tick, so the response carries no resulting state.
func (h *handler) command(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

type pipeGapRequest struct {
	Gap int `json:"gap"`
}

// setPipeGap handles POST /api/pipe-gap with body {"gap": N}
func (h *handler) setPipeGap(w http.ResponseWriter, r *http.Request) {
	var req pipeGapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.engine.SetPipeGap(req.Gap); err != nil {
		if errors.Is(err, game.ErrInvalidArgument) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
