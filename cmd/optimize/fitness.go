package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/telemetry"
)

// FitnessEvaluator runs headless training runs and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config
	logger      *slog.Logger

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	best        *telemetry.NetworkSnapshot
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestNetwork returns the top network of the best evaluation so far, or nil
// before any run has finished a generation.
func (fe *FitnessEvaluator) BestNetwork() *telemetry.NetworkSnapshot {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single training run.
type runResult struct {
	seed        int64
	generations []telemetry.GenerationStats
	hallOfFame  *telemetry.HallOfFame
	err         error
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	best    *telemetry.NetworkSnapshot
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated best distance reached late in training.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runTraining(x, s)
			if result.err != nil {
				fe.logger.Error("training run failed", "seed", s, "error", result.err)
				results[idx] = seedResult{}
				return
			}
			results[idx] = seedResult{
				fitness: computeFitness(result.generations),
				quality: computeQuality(result.generations),
				best:    result.snapshot(),
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeed *telemetry.NetworkSnapshot

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.best != nil && r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeed = r.best
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if bestSeed != nil && avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.best = bestSeed
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runTraining executes one headless training run for the configured number
// of generations.
func (fe *FitnessEvaluator) runTraining(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Game.Mode = config.ModeTraining
	cfg.Game.Seed = seed

	result := &runResult{
		seed:       seed,
		hallOfFame: telemetry.NewHallOfFame(1),
	}

	engine, err := game.NewEngine(cfg, game.Options{
		Logger:         fe.logger,
		RunID:          telemetry.NewRunID(),
		HallOfFame:     result.hallOfFame,
		TickInterval:   -1,
		MaxGenerations: fe.generations,
		OnGeneration: func(stats telemetry.GenerationStats) {
			result.generations = append(result.generations, stats)
		},
	})
	if err != nil {
		result.err = err
		return result
	}

	engine.Start()
	result.err = engine.Run(context.Background())
	return result
}

// snapshot packages the run's top network, or returns nil if the run never
// finished a generation.
func (r *runResult) snapshot() *telemetry.NetworkSnapshot {
	entry, ok := r.hallOfFame.Best()
	if !ok {
		return nil
	}
	return &telemetry.NetworkSnapshot{
		Version:    telemetry.SnapshotVersion,
		RunID:      entry.RunID,
		Seed:       r.seed,
		Generation: entry.Generation,
		Fitness:    entry.Fitness,
		Score:      entry.Score,
		SavedAt:    time.Now().UTC(),
		Brain:      entry.Weights,
	}
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Neural.HiddenLayers = append([]int(nil), fe.baseConfig.Neural.HiddenLayers...)
	return &cfg
}

// lateWindow is the fraction of generations, counted from the end, that
// contributes to fitness.
const lateWindow = 0.25

// computeFitness calculates the scalar fitness (lower = better) as the
// negated mean of the per-generation best distance over the late window.
func computeFitness(gens []telemetry.GenerationStats) float64 {
	late := lateGenerations(gens)
	if len(late) == 0 {
		return 0
	}
	best := make([]float64, len(late))
	for i, g := range late {
		best[i] = g.FitnessMax
	}
	return -stat.Mean(best, nil)
}

// computeQuality measures how much of the population keeps up with the best
// agent late in training, in [0, 1].
func computeQuality(gens []telemetry.GenerationStats) float64 {
	late := lateGenerations(gens)
	if len(late) == 0 {
		return 0
	}
	ratios := make([]float64, 0, len(late))
	for _, g := range late {
		if g.FitnessMax > 0 {
			ratios = append(ratios, g.FitnessP50/g.FitnessMax)
		}
	}
	if len(ratios) == 0 {
		return 0
	}
	return clamp01(stat.Mean(ratios, nil))
}

func lateGenerations(gens []telemetry.GenerationStats) []telemetry.GenerationStats {
	n := int(math.Ceil(float64(len(gens)) * lateWindow))
	return gens[len(gens)-n:]
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
