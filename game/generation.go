package game

import (
	"context"
	"time"

	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

// sinkTimeout bounds a single store write from the loop goroutine.
const sinkTimeout = 2 * time.Second

// finishGeneration records stats, bookmarks and the champion of the
// generation that just ended.
func (e *Engine) finishGeneration(pop *Population) {
	agents := pop.Agents()
	fitness := make([]float64, len(agents))
	scores := make([]int, len(agents))
	for i, a := range agents {
		fitness[i] = a.Fitness()
		scores[i] = a.Player.Score
	}

	stats := e.collector.Flush(pop.Generation(), e.genTicks, fitness, scores)
	perfStats := e.perf.Stats()

	if every := e.cfg.Telemetry.LogEvery; every > 0 && stats.Generation%every == 0 {
		stats.LogStats(e.logger)
		perfStats.LogStats(e.logger)
	}

	if err := e.opts.Output.WriteGeneration(stats); err != nil {
		e.logger.Error("failed to write generation", "error", err)
	}
	if err := e.opts.Output.WritePerf(perfStats, stats.Generation); err != nil {
		e.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range e.bookmarks.Check(stats) {
		bm.LogBookmark(e.logger)
		if err := e.opts.Output.WriteBookmark(bm); err != nil {
			e.logger.Error("failed to write bookmark", "error", err)
		}
	}

	best := pop.Smartest()
	brain, ok := best.Brain()
	if !ok {
		return
	}
	champ := &Champion{
		RunID:      e.opts.RunID,
		Generation: stats.Generation,
		Fitness:    best.Fitness(),
		Score:      best.Player.Score,
		Weights:    brain.MarshalWeights(),
	}
	e.champion.Store(champ)

	if e.opts.HallOfFame != nil {
		entered := e.opts.HallOfFame.Consider(telemetry.HallEntry{
			RunID:      champ.RunID,
			Generation: champ.Generation,
			Fitness:    champ.Fitness,
			Score:      champ.Score,
			Weights:    champ.Weights,
		})
		if entered {
			if err := e.opts.Output.WriteHallOfFame(e.opts.HallOfFame); err != nil {
				e.logger.Error("failed to write hall of fame", "error", err)
			}
		}
	}

	if e.opts.Networks != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		err := e.opts.Networks.SaveNetwork(ctx, storage.NetworkRecord{
			RunID:      champ.RunID,
			Generation: champ.Generation,
			Fitness:    champ.Fitness,
			Score:      champ.Score,
			Weights:    champ.Weights,
		})
		if err != nil {
			e.logger.Error("failed to store network", "generation", champ.Generation, "error", err)
		}
	}

	if e.opts.OnGeneration != nil {
		e.opts.OnGeneration(stats)
	}
}

// recordLoss writes the finished human game to the leaderboard. Games
// without a player name are not recorded.
func (e *Engine) recordLoss() {
	p := e.mode.Best().Player
	e.logger.Info("game over", "player", p.Name, "score", p.Score, "pipe_gap", p.PipeGap)

	if p.Name == "" || e.opts.Leaderboard == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	err := e.opts.Leaderboard.SavePlayer(ctx, storage.PlayerRecord{
		Name:    p.Name,
		Score:   p.Score,
		PipeGap: p.PipeGap,
	})
	if err != nil {
		e.logger.Error("failed to record player", "player", p.Name, "error", err)
	}
}
