package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewBestScore        BookmarkType = "new_best_score"
	BookmarkFitnessBreakthrough BookmarkType = "fitness_breakthrough"
	BookmarkScoreCollapse       BookmarkType = "score_collapse"
	BookmarkStagnation          BookmarkType = "stagnation"
)

// Bookmark marks a notable generation.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark to logger.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable generations from their stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	bestScore      int
	bestFitness    float64
	recentPeak     int // peak max score since the last collapse
	sinceImproving int // generations without a new best fitness
}

// NewBookmarkDetector creates a detector with the given history size.
// The history size is also the stagnation horizon.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNewBestScore(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFitnessBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkScoreCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.ScoreMax > bd.recentPeak {
		bd.recentPeak = stats.ScoreMax
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewBestScore(stats GenerationStats) *Bookmark {
	if stats.ScoreMax <= bd.bestScore {
		return nil
	}
	old := bd.bestScore
	bd.bestScore = stats.ScoreMax
	return &Bookmark{
		Type:        BookmarkNewBestScore,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best score rose from %d to %d", old, stats.ScoreMax),
	}
}

func (bd *BookmarkDetector) checkFitnessBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FitnessMax
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.FitnessMax > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkFitnessBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Max fitness %.0f is %.1fx average (%.0f)", stats.FitnessMax, stats.FitnessMax/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkScoreCollapse(stats GenerationStats) *Bookmark {
	if bd.recentPeak < 4 {
		return nil
	}
	if stats.ScoreMax*2 >= bd.recentPeak {
		return nil
	}

	// Reset the peak after triggering
	oldPeak := bd.recentPeak
	bd.recentPeak = stats.ScoreMax
	return &Bookmark{
		Type:        BookmarkScoreCollapse,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Max score fell from peak %d to %d", oldPeak, stats.ScoreMax),
	}
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if stats.FitnessMax > bd.bestFitness {
		bd.bestFitness = stats.FitnessMax
		bd.sinceImproving = 0
		return nil
	}

	bd.sinceImproving++
	if bd.sinceImproving < bd.historySize {
		return nil
	}

	bd.sinceImproving = 0
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("No fitness improvement over %.0f for %d generations", bd.bestFitness, bd.historySize),
	}
}
