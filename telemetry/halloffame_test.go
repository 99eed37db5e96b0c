package telemetry

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/flappy/neural"
)

func TestHallOfFameOrdering(t *testing.T) {
	hof := NewHallOfFame(3)

	for i, f := range []float64{100, 300, 200, 300, 50} {
		hof.Consider(HallEntry{Generation: i, Fitness: f})
	}

	if hof.Size() != 3 {
		t.Fatalf("Size = %d, want 3", hof.Size())
	}

	entries := hof.Entries()
	wantGens := []int{1, 3, 2}
	for i, want := range wantGens {
		if entries[i].Generation != want {
			t.Errorf("rank %d: generation %d, want %d", i, entries[i].Generation, want)
		}
	}

	if hof.Consider(HallEntry{Fitness: 10}) {
		t.Error("entry below a full hall should be rejected")
	}

	best, ok := hof.Best()
	if !ok || best.Fitness != 300 || best.Generation != 1 {
		t.Errorf("Best = %+v, %v", best, ok)
	}
}

func TestHallOfFameEmpty(t *testing.T) {
	hof := NewHallOfFame(0)
	if _, ok := hof.Best(); ok {
		t.Error("empty hall has no best")
	}
	if !hof.Consider(HallEntry{Fitness: 1}) || hof.Size() != 1 {
		t.Error("capacity is at least one")
	}
}

func TestHallOfFameFileRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	hof := NewHallOfFame(5)
	for i := 0; i < 4; i++ {
		hof.Consider(HallEntry{
			RunID:      "run",
			Generation: i,
			Fitness:    float64(i * 100),
			Score:      i,
			Weights:    neural.NewNetwork(rng, []int{3}).MarshalWeights(),
		})
	}

	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()
	if err := om.WriteHallOfFame(hof); err != nil {
		t.Fatalf("WriteHallOfFame: %v", err)
	}

	loaded, err := LoadHallOfFameFromFile(filepath.Join(dir, "hall_of_fame.json"), 2)
	if err != nil {
		t.Fatalf("LoadHallOfFameFromFile: %v", err)
	}
	if loaded.Size() != 4 {
		t.Fatalf("loaded %d entries, want 4", loaded.Size())
	}
	best, _ := loaded.Best()
	if best.Generation != 3 || best.Score != 3 {
		t.Errorf("best = %+v", best)
	}
	if _, err := neural.FromWeights(best.Weights); err != nil {
		t.Errorf("stored weights do not rebuild: %v", err)
	}
}
