package game

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/systems"
)

// BreedParams controls how a generation is bred from the previous one.
type BreedParams struct {
	Elites       int     // Top networks copied unmutated
	BreedingPool float64 // Fraction of ranked agents eligible as parents
	Hidden       []int
	Mutation     neural.MutationParams
}

// BreedParamsFromConfig extracts the breeding parameters from cfg.
func BreedParamsFromConfig(cfg *config.Config) BreedParams {
	m := cfg.Mutation
	return BreedParams{
		Elites:       cfg.Population.Elites,
		BreedingPool: cfg.Population.BreedingPool,
		Hidden:       cfg.Neural.HiddenLayers,
		Mutation: neural.MutationParams{
			Rate:     m.Rate,
			Sigma:    m.Sigma,
			BigRate:  m.BigRate,
			BigSigma: m.BigSigma,
			MaxDelta: m.MaxDelta,
		},
	}
}

// Population is a fixed-size set of network-driven agents.
type Population struct {
	agents     []*Agent
	generation int
	params     BreedParams
	rng        *rand.Rand
}

// NewRandomPopulation creates size agents with freshly initialized networks.
func NewRandomPopulation(env systems.Env, size int, params BreedParams, rng *rand.Rand) (*Population, error) {
	if size < 2 {
		return nil, fmt.Errorf("population size %d: %w", size, ErrInvalidArgument)
	}
	p := &Population{
		agents: make([]*Agent, size),
		params: params,
		rng:    rng,
	}
	for i := range p.agents {
		p.agents[i] = newTrainee(env, neural.NewNetwork(rng, params.Hidden))
	}
	return p, nil
}

func newTrainee(env systems.Env, brain *neural.Network) *Agent {
	return NewAgent(env, &Player{PipeGap: env.Gap}, brain)
}

// Agents returns the agents in insertion order.
func (p *Population) Agents() []*Agent {
	return p.agents
}

// Size returns the number of agents.
func (p *Population) Size() int {
	return len(p.agents)
}

// Generation returns how many generations have been bred so far.
func (p *Population) Generation() int {
	return p.generation
}

// Smartest returns the first agent with the strictly highest fitness.
func (p *Population) Smartest() *Agent {
	best := p.agents[0]
	for _, a := range p.agents[1:] {
		if a.Fitness() > best.Fitness() {
			best = a
		}
	}
	return best
}

// Ranked returns the agents by fitness descending; ties keep insertion order.
func (p *Population) Ranked() []*Agent {
	ranked := make([]*Agent, len(p.agents))
	copy(ranked, p.agents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness() > ranked[j].Fitness()
	})
	return ranked
}

// NewPopulation replaces every agent with a bred successor and advances the
// generation counter. Elites come first, in rank order.
func (p *Population) NewPopulation(env systems.Env) error {
	ranked := p.Ranked()
	n := len(ranked)

	elites := p.params.Elites
	if elites < 0 {
		elites = 0
	}
	if elites > n {
		elites = n
	}

	poolSize := int(math.Ceil(p.params.BreedingPool * float64(n)))
	if poolSize < 2 {
		poolSize = 2
	}
	if poolSize > n {
		poolSize = n
	}
	pool := ranked[:poolSize]

	next := make([]*Agent, 0, n)
	for _, a := range ranked[:elites] {
		next = append(next, newTrainee(env, a.brain.Clone()))
	}

	for len(next) < n {
		mother := p.pick(pool)
		father := p.pick(pool)
		child, err := neural.Crossover(p.rng, mother.brain, father.brain)
		if err != nil {
			return fmt.Errorf("breeding generation %d: %w", p.generation+1, err)
		}
		child.Mutate(p.rng, p.params.Mutation)
		next = append(next, newTrainee(env, child))
	}

	p.agents = next
	p.generation++
	return nil
}

// pick draws a parent from pool proportionally to fitness, or uniformly when
// the pool has no fitness at all.
func (p *Population) pick(pool []*Agent) *Agent {
	var total float64
	for _, a := range pool {
		total += a.Fitness()
	}
	if total <= 0 {
		return pool[p.rng.Intn(len(pool))]
	}

	r := p.rng.Float64() * total
	for _, a := range pool {
		r -= a.Fitness()
		if r < 0 {
			return a
		}
	}
	return pool[len(pool)-1]
}
