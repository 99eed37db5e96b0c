package systems

import (
	"testing"
)

func TestUpdateScoreOncePerGap(t *testing.T) {
	env := testEnv()
	pairs := []Pair{testPair()}

	// Fly level through the gap, 2px per tick, from well before the pair
	// until well after it.
	hb := Rect{X: 250, Y: 300, W: 30, H: 30}
	latched := false
	scores := 0
	for hb.X < 420 {
		scored, latch := UpdateScore(env, hb, pairs, latched)
		if scored {
			scores++
		}
		latched = latch
		hb.X += 2
	}

	if scores != 1 {
		t.Errorf("scored %d times through one gap, want 1", scores)
	}
	if latched {
		t.Error("latch should re-arm after leaving the gap")
	}
}

func TestUpdateScoreRearms(t *testing.T) {
	env := testEnv()
	first := testPair()
	second := testPair()
	second.X = 600
	pairs := []Pair{first, second}

	hb := Rect{X: 250, Y: 300, W: 30, H: 30}
	latched := false
	scores := 0
	for hb.X < 720 {
		scored, latch := UpdateScore(env, hb, pairs, latched)
		if scored {
			scores++
		}
		latched = latch
		hb.X += 2
	}

	if scores != 2 {
		t.Errorf("scored %d times through two gaps, want 2", scores)
	}
}

func TestUpdateScoreOutsideGap(t *testing.T) {
	env := testEnv()
	hb := Rect{X: 310, Y: 100, W: 30, H: 30}

	scored, latch := UpdateScore(env, hb, []Pair{testPair()}, false)
	if scored || latch {
		t.Errorf("UpdateScore = %v, %v for a hitbox in the top pipe, want false, false", scored, latch)
	}
}
