package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NewBestScore(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if hasBookmark(bd.Check(GenerationStats{Generation: 0, ScoreMax: 0}), BookmarkNewBestScore) {
		t.Error("a zero score is not a new best")
	}
	if !hasBookmark(bd.Check(GenerationStats{Generation: 1, ScoreMax: 2}), BookmarkNewBestScore) {
		t.Error("expected new best score bookmark")
	}
	if hasBookmark(bd.Check(GenerationStats{Generation: 2, ScoreMax: 2}), BookmarkNewBestScore) {
		t.Error("equal score should not re-trigger")
	}
}

func TestBookmarkDetector_FitnessBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(GenerationStats{Generation: i, FitnessMax: 300})
	}

	bookmarks := bd.Check(GenerationStats{Generation: 5, FitnessMax: 1000})
	if !hasBookmark(bookmarks, BookmarkFitnessBreakthrough) {
		t.Error("expected fitness breakthrough bookmark")
	}
}

func TestBookmarkDetector_NoBreakthroughWithoutHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(GenerationStats{Generation: 0, FitnessMax: 100})

	if hasBookmark(bd.Check(GenerationStats{Generation: 1, FitnessMax: 1000}), BookmarkFitnessBreakthrough) {
		t.Error("breakthrough needs at least three generations of history")
	}
}

func TestBookmarkDetector_ScoreCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(GenerationStats{Generation: 0, ScoreMax: 10})

	if !hasBookmark(bd.Check(GenerationStats{Generation: 1, ScoreMax: 3}), BookmarkScoreCollapse) {
		t.Error("expected score collapse bookmark")
	}
	// Peak was reset to 3, below the trigger floor
	if hasBookmark(bd.Check(GenerationStats{Generation: 2, ScoreMax: 0}), BookmarkScoreCollapse) {
		t.Error("collapse should not re-trigger from a low peak")
	}
}

func TestBookmarkDetector_Stagnation(t *testing.T) {
	bd := NewBookmarkDetector(5)
	bd.Check(GenerationStats{Generation: 0, FitnessMax: 500})

	var triggered []int
	for i := 1; i <= 10; i++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: i, FitnessMax: 400}), BookmarkStagnation) {
			triggered = append(triggered, i)
		}
	}

	if len(triggered) != 2 || triggered[0] != 5 || triggered[1] != 10 {
		t.Errorf("stagnation triggered at %v, want [5 10]", triggered)
	}
}
