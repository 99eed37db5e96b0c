package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/server"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "", "Game mode: player or training (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, time-based if that is 0 too)")
	maxGenerations := flag.Int("max-generations", 0, "Stop training after N generations (0 = unlimited)")
	maxTicks := flag.Int("max-ticks", -1, "Per-generation tick cap (-1 = use config, 0 = unlimited)")
	headlessFast := flag.Bool("headless-fast", false, "Step as fast as possible instead of at the tick rate")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	httpAddr := flag.String("http", "", "Address for the HTTP observer, e.g. :8080 (empty = use config)")
	storeKind := flag.String("store", "", "Store backend: memory or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "SQLite database path (empty = use config)")
	player := flag.String("player", "", "Leaderboard name in player mode")
	saveBest := flag.String("save-best", "", "Write the best network to this JSON file on exit")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	applyFlags(cfg, *mode, *seed, *maxTicks, *outputDir, *httpAddr, *storeKind, *storePath, *player)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, *maxGenerations, *headlessFast, *saveBest); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, mode string, seed int64, maxTicks int, outputDir, httpAddr, storeKind, storePath, player string) {
	if mode != "" {
		cfg.Game.Mode = mode
	}
	if seed != 0 {
		cfg.Game.Seed = seed
	}
	if maxTicks >= 0 {
		cfg.Population.MaxTicks = maxTicks
	}
	if outputDir != "" {
		cfg.Telemetry.OutputDir = outputDir
	}
	if httpAddr != "" {
		cfg.Server.Addr = httpAddr
	}
	if storeKind != "" {
		cfg.Storage.Kind = storeKind
	}
	if storePath != "" {
		cfg.Storage.Path = storePath
	}
	if player != "" {
		cfg.Game.Player = player
	}
}

func run(cfg *config.Config, logger *slog.Logger, maxGenerations int, headlessFast bool, saveBest string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := telemetry.NewRunID()

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	opts := game.Options{
		Logger:         logger,
		Leaderboard:    store,
		Networks:       store,
		Output:         out,
		HallOfFame:     telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		RunID:          runID,
		MaxGenerations: maxGenerations,
	}
	if headlessFast {
		opts.TickInterval = -1
	}

	engine, err := game.NewEngine(cfg, opts)
	if err != nil {
		return err
	}

	var srv *http.Server
	if cfg.Server.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.NewRouter(engine, store, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("http observer listening", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server failed", "error", err)
			}
		}()
	}

	switch cfg.Game.Mode {
	case config.ModeTraining:
		engine.Start()
	case config.ModePlayer:
		if srv == nil {
			slog.Warn("player mode without -http has no way to start or flap")
		}
	}

	slog.Info("starting simulation",
		"run_id", runID,
		"mode", cfg.Game.Mode,
		"seed", engine.Seed(),
		"max_generations", maxGenerations,
		"headless_fast", headlessFast,
	)

	runErr := engine.Run(ctx)
	if errors.Is(runErr, game.ErrInterrupted) {
		slog.Info("simulation interrupted", "generation", engine.Generation())
		runErr = nil
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
	}

	if saveBest != "" {
		if err := saveChampion(engine, runID, saveBest); err != nil {
			return err
		}
	}

	s := engine.Status()
	slog.Info("simulation finished",
		"state", s.State,
		"generation", s.Generation,
		"best_score", s.BestScore,
	)
	return runErr
}

func saveChampion(engine *game.Engine, runID, path string) error {
	champ, ok := engine.Champion()
	if !ok {
		slog.Warn("no finished generation, best network not saved")
		return nil
	}

	snapshot := &telemetry.NetworkSnapshot{
		Version:    telemetry.SnapshotVersion,
		RunID:      runID,
		Seed:       engine.Seed(),
		Generation: champ.Generation,
		Fitness:    champ.Fitness,
		Score:      champ.Score,
		SavedAt:    time.Now().UTC(),
		Brain:      champ.Weights,
	}
	if err := telemetry.SaveNetworkSnapshot(snapshot, path); err != nil {
		return err
	}
	slog.Info("best network saved", "path", path, "generation", champ.Generation, "fitness", champ.Fitness)
	return nil
}
