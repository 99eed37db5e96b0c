package neural

import (
	"fmt"
	"math/rand"
)

// MutationParams controls sparse Gaussian mutation.
type MutationParams struct {
	Rate     float64 // Probability each weight mutates (e.g., 0.1)
	Sigma    float64 // Standard deviation of a normal perturbation
	BigRate  float64 // Probability a mutation uses BigSigma instead
	BigSigma float64
	MaxDelta float64 // Absolute bound on a single perturbation (0 = unbounded)
}

// Crossover builds a child whose every weight and bias comes from one of the
// two parents, chosen independently with equal probability.
func Crossover(rng *rand.Rand, a, b *Network) (*Network, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot crossover nil networks")
	}
	if !a.sameShape(b) {
		return nil, fmt.Errorf("crossover %v with %v: %w", a.Sizes(), b.Sizes(), ErrShapeMismatch)
	}

	child := a.Clone()
	cv, bv := child.views(), b.views()
	for k := range cv {
		for j := range cv[k].data {
			if rng.Float64() < 0.5 {
				cv[k].data[j] = bv[k].data[j]
			}
		}
	}
	return child, nil
}

// Mutate applies sparse per-weight mutation in place.
// Biases mutate at half the weight rate.
// Returns avgAbsDelta: the average absolute delta of all applied mutations.
func (nn *Network) Mutate(rng *rand.Rand, p MutationParams) float64 {
	biasRate := p.Rate * 0.5

	var totalDelta float64
	var count int

	for _, v := range nn.views() {
		rate := p.Rate
		if v.bias {
			rate = biasRate
		}
		for j := range v.data {
			if rng.Float64() >= rate {
				continue
			}
			sigma := p.Sigma
			if rng.Float64() < p.BigRate {
				sigma = p.BigSigma
			}
			delta := clampDelta(rng.NormFloat64()*sigma, p.MaxDelta)
			v.data[j] += delta
			if delta < 0 {
				totalDelta -= delta
			} else {
				totalDelta += delta
			}
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return totalDelta / float64(count)
}

func clampDelta(d, bound float64) float64 {
	if bound <= 0 {
		return d
	}
	if d > bound {
		return bound
	}
	if d < -bound {
		return -bound
	}
	return d
}
