package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/storage"
)

type fakeEngine struct {
	mu       sync.Mutex
	status   game.Status
	champion *game.Champion
	calls    []string
	gap      int
}

func (f *fakeEngine) Status() game.Status { return f.status }

func (f *fakeEngine) Champion() (game.Champion, bool) {
	if f.champion == nil {
		return game.Champion{}, false
	}
	return *f.champion, true
}

func (f *fakeEngine) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeEngine) Start() { f.record("start") }
func (f *fakeEngine) Pause() { f.record("pause") }
func (f *fakeEngine) End()   { f.record("end") }
func (f *fakeEngine) Flap()  { f.record("flap") }

func (f *fakeEngine) SetPipeGap(gap int) error {
	if gap < 0 {
		return fmt.Errorf("pipe gap %d: %w", gap, game.ErrInvalidArgument)
	}
	f.gap = gap
	f.record("gap")
	return nil
}

func testRouter(t *testing.T, engine Engine, board Leaderboard) http.Handler {
	t.Helper()
	return NewRouter(engine, board, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := testRouter(t, &fakeEngine{}, nil)
	rec := do(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGetState(t *testing.T) {
	engine := &fakeEngine{status: game.Status{
		State:      game.Running,
		Mode:       "population",
		Tick:       42,
		Generation: 3,
		Alive:      7,
		Agents:     10,
		BestScore:  2,
		PipeGap:    240,
	}}
	h := testRouter(t, engine, nil)

	rec := do(t, h, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got["state"] != "running" {
		t.Errorf("state = %v, want running", got["state"])
	}
	if got["generation"] != float64(3) || got["alive"] != float64(7) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestGetAgentsAndPipes(t *testing.T) {
	engine := &fakeEngine{status: game.Status{
		Bodies: []game.AgentView{{X: 250, Y: 340, Alive: true}, {X: 240, Y: 700}},
		Pipes:  []game.PipeView{{X: 560, Width: 80, TopHeight: 100, BottomHeight: 380}},
	}}
	h := testRouter(t, engine, nil)

	var agents []game.AgentView
	rec := do(t, h, http.MethodGet, "/api/agents", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &agents); err != nil {
		t.Fatalf("decoding agents: %v", err)
	}
	if len(agents) != 2 || !agents[0].Alive || agents[1].Alive {
		t.Errorf("agents = %+v", agents)
	}

	var pipes []game.PipeView
	rec = do(t, h, http.MethodGet, "/api/pipes", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &pipes); err != nil {
		t.Fatalf("decoding pipes: %v", err)
	}
	if len(pipes) != 1 || pipes[0].TopHeight != 100 {
		t.Errorf("pipes = %+v", pipes)
	}
}

func TestGetBestNetwork(t *testing.T) {
	engine := &fakeEngine{}
	h := testRouter(t, engine, nil)

	if rec := do(t, h, http.MethodGet, "/api/best-network", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status before any generation = %d, want 404", rec.Code)
	}

	engine.champion = &game.Champion{
		RunID:      "run-1",
		Generation: 4,
		Fitness:    1200,
		Weights: neural.BrainWeights{Layers: []neural.LayerWeights{
			{Rows: 1, Cols: 2, W: []float64{0.5, -0.5}, B: []float64{0.1}},
		}},
	}
	rec := do(t, h, http.MethodGet, "/api/best-network", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got championResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.Generation != 4 || got.RunID != "run-1" || len(got.Brain.Layers) != 1 {
		t.Errorf("unexpected champion %+v", got)
	}
}

func TestCommands(t *testing.T) {
	engine := &fakeEngine{}
	h := testRouter(t, engine, nil)

	for _, path := range []string{"/api/start", "/api/pause", "/api/end", "/api/flap"} {
		if rec := do(t, h, http.MethodPost, path, ""); rec.Code != http.StatusAccepted {
			t.Errorf("POST %s = %d, want 202", path, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/start", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/start = %d, want 405", rec.Code)
	}

	want := []string{"start", "pause", "end", "flap"}
	if strings.Join(engine.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", engine.calls, want)
	}
}

func TestSetPipeGap(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"gap": 200}`, http.StatusAccepted},
		{"rejected", `{"gap": -5}`, http.StatusBadRequest},
		{"malformed", `{"gap":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			h := testRouter(t, engine, nil)
			rec := do(t, h, http.MethodPost, "/api/pipe-gap", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"ada", "bob", "cy"} {
		if err := store.SavePlayer(ctx, storage.PlayerRecord{Name: name, Score: i * 3}); err != nil {
			t.Fatal(err)
		}
	}

	h := testRouter(t, &fakeEngine{}, store)

	rec := do(t, h, http.MethodGet, "/api/leaderboard?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var players []storage.PlayerRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &players); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(players) != 2 || players[0].Name != "cy" || players[1].Name != "bob" {
		t.Errorf("players = %+v", players)
	}

	if rec := do(t, h, http.MethodGet, "/api/leaderboard?limit=zero", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	noBoard := testRouter(t, &fakeEngine{}, nil)
	if rec := do(t, noBoard, http.MethodGet, "/api/leaderboard", ""); rec.Code != http.StatusNotFound {
		t.Errorf("without a store status = %d, want 404", rec.Code)
	}
}
