package game

import (
	"fmt"

	"github.com/pthm-cable/flappy/systems"
)

// ModeKind selects between human play and population training.
type ModeKind uint8

const (
	ModeSingle ModeKind = iota
	ModePopulation
)

func (k ModeKind) String() string {
	switch k {
	case ModeSingle:
		return "single"
	case ModePopulation:
		return "population"
	default:
		return "unknown"
	}
}

// Mode is a tagged variant over the two game modes. Exactly one of single
// and population is set, matching kind.
type Mode struct {
	kind       ModeKind
	single     *Agent
	population *Population
}

// SingleMode wraps one human-controlled agent.
func SingleMode(a *Agent) Mode {
	return Mode{kind: ModeSingle, single: a}
}

// PopulationMode wraps a training population.
func PopulationMode(p *Population) Mode {
	return Mode{kind: ModePopulation, population: p}
}

// Kind returns the active variant.
func (m Mode) Kind() ModeKind {
	return m.kind
}

// IsTraining reports whether agents are driven by networks.
func (m Mode) IsTraining() bool {
	switch m.kind {
	case ModeSingle:
		return false
	case ModePopulation:
		return true
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}

// Population returns the training population, if any.
func (m Mode) Population() (*Population, bool) {
	switch m.kind {
	case ModeSingle:
		return nil, false
	case ModePopulation:
		return m.population, true
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}

// Agents returns every agent in a stable order.
func (m Mode) Agents() []*Agent {
	switch m.kind {
	case ModeSingle:
		return []*Agent{m.single}
	case ModePopulation:
		return m.population.Agents()
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}

// AgentAt returns the agent at index i.
func (m Mode) AgentAt(i int) (*Agent, error) {
	switch m.kind {
	case ModeSingle:
		if i != 0 {
			return nil, fmt.Errorf("agent index %d in single mode: %w", i, ErrInvalidArgument)
		}
		return m.single, nil
	case ModePopulation:
		agents := m.population.Agents()
		if i < 0 || i >= len(agents) {
			return nil, fmt.Errorf("agent index %d of %d: %w", i, len(agents), ErrInvalidArgument)
		}
		return agents[i], nil
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}

// Best returns the human agent, or the first agent with the strictly
// highest fitness.
func (m Mode) Best() *Agent {
	switch m.kind {
	case ModeSingle:
		return m.single
	case ModePopulation:
		return m.population.Smartest()
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}

// AllDead reports whether no agent is alive.
func (m Mode) AllDead() bool {
	for _, a := range m.Agents() {
		if a.Alive {
			return false
		}
	}
	return true
}

// ResetPositions revives every agent at the start position.
func (m Mode) ResetPositions(env systems.Env) {
	for _, a := range m.Agents() {
		a.ResetPosition(env)
	}
}

// Flap makes the human agent flap. Returns false when nothing flapped:
// training agents only flap through their networks.
func (m Mode) Flap() bool {
	switch m.kind {
	case ModeSingle:
		if !m.single.Alive {
			return false
		}
		m.single.Flap()
		return true
	case ModePopulation:
		return false
	}
	panic(fmt.Sprintf("game: unknown mode %d", m.kind))
}
