package telemetry

// DeathCause records why an agent died.
type DeathCause uint8

const (
	DeathCollision DeathCause = iota
	DeathOutOfBounds
	DeathTimeout
)

// String returns the cause name used in logs.
func (c DeathCause) String() string {
	switch c {
	case DeathCollision:
		return "collision"
	case DeathOutOfBounds:
		return "out_of_bounds"
	case DeathTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Collector accumulates events within one generation and produces
// GenerationStats when the generation ends.
type Collector struct {
	runID string

	flaps       int
	collisions  int
	outOfBounds int
	timeouts    int
}

// NewCollector creates a collector tagging its stats with runID.
func NewCollector(runID string) *Collector {
	return &Collector{runID: runID}
}

// RecordFlap records one flap by any agent.
func (c *Collector) RecordFlap() {
	c.flaps++
}

// RecordDeath records an agent death.
func (c *Collector) RecordDeath(cause DeathCause) {
	switch cause {
	case DeathCollision:
		c.collisions++
	case DeathOutOfBounds:
		c.outOfBounds++
	case DeathTimeout:
		c.timeouts++
	}
}

// Deaths returns the number of deaths recorded in the current generation.
func (c *Collector) Deaths() int {
	return c.collisions + c.outOfBounds + c.timeouts
}

// Flush produces the stats for a finished generation and resets the counters.
// fitness and scores are indexed by agent.
func (c *Collector) Flush(generation, ticks int, fitness []float64, scores []int) GenerationStats {
	mean, std, p10, p50, p90 := Distribution(fitness)

	stats := GenerationStats{
		RunID:       c.runID,
		Generation:  generation,
		Ticks:       ticks,
		Population:  len(fitness),
		Flaps:       c.flaps,
		Collisions:  c.collisions,
		OutOfBounds: c.outOfBounds,
		Timeouts:    c.timeouts,
		FitnessMean: mean,
		FitnessStd:  std,
		FitnessP10:  p10,
		FitnessP50:  p50,
		FitnessP90:  p90,
		BestIndex:   BestIndex(fitness),
	}
	if stats.BestIndex >= 0 {
		stats.FitnessMax = fitness[stats.BestIndex]
	}

	if len(scores) > 0 {
		total := 0
		for _, s := range scores {
			total += s
			if s > stats.ScoreMax {
				stats.ScoreMax = s
			}
		}
		stats.ScoreMean = float64(total) / float64(len(scores))
	}

	c.flaps = 0
	c.collisions = 0
	c.outOfBounds = 0
	c.timeouts = 0

	return stats
}
