package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestCrossoverTakesEveryGeneFromAParent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := NewNetwork(rng, []int{8})
	b := NewNetwork(rng, []int{8})

	child, err := Crossover(rng, a, b)
	if err != nil {
		t.Fatalf("Crossover failed: %v", err)
	}

	av, bv, cv := a.views(), b.views(), child.views()
	fromA, fromB := 0, 0
	for k := range cv {
		for j, w := range cv[k].data {
			switch w {
			case av[k].data[j]:
				fromA++
			case bv[k].data[j]:
				fromB++
			default:
				t.Fatalf("param %d/%d = %v comes from neither parent", k, j, w)
			}
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Errorf("uniform crossover should mix parents: fromA=%d fromB=%d", fromA, fromB)
	}
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewNetwork(rng, []int{4})
	b := NewNetwork(rng, []int{4})
	aCopy, bCopy := a.Clone(), b.Clone()

	child, err := Crossover(rng, a, b)
	if err != nil {
		t.Fatal(err)
	}
	child.Mutate(rng, MutationParams{Rate: 1, Sigma: 1})

	if !a.Equal(aCopy) || !b.Equal(bCopy) {
		t.Error("mutating the child changed a parent")
	}
}

func TestCrossoverShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := NewNetwork(rng, []int{8})
	b := NewNetwork(rng, []int{4})

	if _, err := Crossover(rng, a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("error = %v, want ErrShapeMismatch", err)
	}
	if _, err := Crossover(rng, a, nil); err == nil {
		t.Error("expected error for nil parent")
	}
}

func TestCrossoverDeterministic(t *testing.T) {
	parents := rand.New(rand.NewSource(9))
	a := NewNetwork(parents, []int{8})
	b := NewNetwork(parents, []int{8})

	c1, _ := Crossover(rand.New(rand.NewSource(5)), a, b)
	c2, _ := Crossover(rand.New(rand.NewSource(5)), a, b)
	if !c1.Equal(c2) {
		t.Error("crossover with the same seed produced different children")
	}
}

func TestMutate(t *testing.T) {
	tests := []struct {
		name      string
		params    MutationParams
		wantMoved bool
	}{
		{"zero rate leaves weights", MutationParams{Rate: 0, Sigma: 1}, false},
		{"full rate moves weights", MutationParams{Rate: 1, Sigma: 0.5}, true},
		{"big mutations", MutationParams{Rate: 1, Sigma: 0.1, BigRate: 1, BigSigma: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			nn := NewNetwork(rng, []int{8})
			orig := nn.Clone()

			avg := nn.Mutate(rng, tt.params)
			moved := !nn.Equal(orig)
			if moved != tt.wantMoved {
				t.Errorf("moved = %v, want %v", moved, tt.wantMoved)
			}
			if !tt.wantMoved && avg != 0 {
				t.Errorf("avgAbsDelta = %v, want 0", avg)
			}
		})
	}
}

func TestMutateBoundedDelta(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8})
	orig := nn.Clone()

	const bound = 0.05
	nn.Mutate(rng, MutationParams{Rate: 1, Sigma: 10, MaxDelta: bound})

	ov, nv := orig.views(), nn.views()
	for k := range nv {
		for j := range nv[k].data {
			if d := math.Abs(nv[k].data[j] - ov[k].data[j]); d > bound+1e-12 {
				t.Fatalf("delta %v exceeds bound %v", d, bound)
			}
		}
	}
}
