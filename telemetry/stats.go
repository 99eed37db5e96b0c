package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one finished generation.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	Ticks      int    `csv:"ticks"`
	Population int    `csv:"population"`

	// Events during the generation
	Flaps       int `csv:"flaps"`
	Collisions  int `csv:"collisions"`
	OutOfBounds int `csv:"out_of_bounds"`
	Timeouts    int `csv:"timeouts"`

	// Fitness distribution (distance traveled)
	FitnessMax  float64 `csv:"fitness_max"`
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	// Game score (pipes passed)
	ScoreMax  int     `csv:"score_max"`
	ScoreMean float64 `csv:"score_mean"`

	BestIndex int `csv:"best_index"`
}

// Distribution summarizes a sample: mean, population std-dev and the
// empirical 10th/50th/90th percentiles. Returns zeros for an empty sample.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std = stat.PopMeanStdDev(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// BestIndex returns the index of the first maximum, or -1 for an empty slice.
// Later entries must be strictly greater to replace an earlier one.
func BestIndex(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int("population", s.Population),
		slog.Int("flaps", s.Flaps),
		slog.Int("collisions", s.Collisions),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("timeouts", s.Timeouts),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p10", s.FitnessP10),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("fitness_p90", s.FitnessP90),
		slog.Int("score_max", s.ScoreMax),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Int("best_index", s.BestIndex),
	)
}

// LogStats logs the full stats record to logger.
func (s GenerationStats) LogStats(logger *slog.Logger) {
	logger.Info("generation", "stats", s)
}
