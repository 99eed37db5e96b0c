// Package main provides CMA-ES optimization for finding genetic algorithm
// parameters that train strong flappy networks quickly.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/telemetry"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	generations int
	seeds       int
	maxEvals    int
	population  int
	outputDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.generations, "generations", 30, "Generations per training run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation, counted up from game.seed")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	params := NewParamVector()
	seeds := evalSeeds(baseCfg.Game.Seed, opts.seeds)
	evaluator := NewFitnessEvaluator(params, opts.generations, seeds, baseCfg)

	popSize := opts.population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3.0*math.Log(float64(params.Dim())))
	}

	logFile, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	header := []string{"eval", "fitness", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := logWriter.Write(header); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// The logged values are the clamped ones the run actually used
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			quality := evaluator.LastQuality()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			row := []string{
				strconv.Itoa(evalCount),
				strconv.FormatFloat(fitness, 'f', 6, 64),
				strconv.FormatFloat(quality, 'f', 4, 64),
			}
			for _, v := range clamped {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
			if err := logWriter.Write(row); err != nil {
				logger.Warn("failed to write log row", "eval", evalCount, "error", err)
			}
			logWriter.Flush()

			elapsed := time.Since(startTime)
			remaining := time.Duration(opts.maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			logger.Info("evaluation",
				"eval", evalCount,
				"max_evals", opts.maxEvals,
				"distance", -fitness,
				"quality", quality,
				"best_distance", -bestFitness,
				"elapsed", elapsed.Round(time.Second).String(),
				"eta", remaining.Round(time.Second).String(),
			)
			return fitness
		},
	}

	logger.Info("starting CMA-ES optimization",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", seeds,
		"generations", opts.generations,
	)

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Warn("optimization ended early", "error", err)
	}
	if bestParams == nil {
		if result == nil {
			return errors.New("no evaluation completed")
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	best := make(map[string]float64, len(bestParams))
	for i, spec := range params.Specs {
		best[spec.Path] = bestParams[i]
	}
	logger.Info("optimization complete",
		"evals", evalCount,
		"elapsed", time.Since(startTime).Round(time.Second).String(),
		"best_distance", -bestFitness,
		"best_params", best,
	)

	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)
	configPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configPath); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	logger.Info("best config saved", "path", configPath)

	snapshot := evaluator.BestNetwork()
	if snapshot == nil {
		logger.Warn("no run finished a generation, best network not saved")
		return nil
	}
	networkPath := filepath.Join(opts.outputDir, "best_network.json")
	if err := telemetry.SaveNetworkSnapshot(snapshot, networkPath); err != nil {
		return err
	}
	logger.Info("best network saved",
		"path", networkPath,
		"run_id", snapshot.RunID,
		"seed", snapshot.Seed,
		"fitness", snapshot.Fitness,
	)
	return nil
}

// evalSeeds returns n consecutive seeds starting at base. A zero base picks a
// time-based start, matching how the game treats an unset seed.
func evalSeeds(base int64, n int) []int64 {
	if base == 0 {
		base = time.Now().UnixNano()
	}
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}
	return seeds
}
