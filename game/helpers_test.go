package game

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns the defaults with a fixed seed and no periodic logging.
func testConfig(mode string) *config.Config {
	cfg := config.Default()
	cfg.Game.Mode = mode
	cfg.Game.Seed = 42
	cfg.Telemetry.LogEvery = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	e, err := NewEngine(cfg, opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func testPopulation(t *testing.T, size int, seed int64) (*Population, systems.Env) {
	t.Helper()
	cfg := testConfig(config.ModeTraining)
	env := systems.NewEnv(cfg)
	pop, err := NewRandomPopulation(env, size, BreedParamsFromConfig(cfg), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewRandomPopulation failed: %v", err)
	}
	return pop, env
}

type recordingPresenter struct {
	repaints int
	failures []error
}

func (p *recordingPresenter) RequestRepaint() {
	p.repaints++
}

func (p *recordingPresenter) EngineFailed(err error) {
	p.failures = append(p.failures, err)
}
