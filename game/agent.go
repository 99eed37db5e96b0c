package game

import (
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/systems"
)

// Player is the scoring record behind an agent.
type Player struct {
	Name         string
	Score        int
	ScoredAtPipe bool // Latched while the agent is inside a gap
	PipeGap      int  // Gap the game was started with
}

// Agent is one flying body, either human-controlled or driven by its own
// network.
type Agent struct {
	systems.Body

	Alive    bool
	Distance int // Total pixels traveled while alive
	Player   *Player

	brain *neural.Network
}

// NewAgent creates a living agent at the start position. brain may be nil
// for a human-controlled agent; otherwise the agent takes ownership of it.
func NewAgent(env systems.Env, player *Player, brain *neural.Network) *Agent {
	if player == nil {
		player = &Player{}
	}
	return &Agent{
		Body:   systems.StartBody(env),
		Alive:  true,
		Player: player,
		brain:  brain,
	}
}

// Brain returns the agent's network, if it has one.
func (a *Agent) Brain() (*neural.Network, bool) {
	return a.brain, a.brain != nil
}

// Fitness is the ranking signal used for selection.
func (a *Agent) Fitness() float64 {
	return float64(a.Distance)
}

// ResetPosition moves the agent back to the start and revives it.
func (a *Agent) ResetPosition(env systems.Env) {
	a.Body = systems.StartBody(env)
	a.Alive = true
	a.Distance = 0
}
