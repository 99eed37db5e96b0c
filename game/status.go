package game

import (
	"github.com/pthm-cable/flappy/neural"
)

// Status is an immutable view of the engine published after every tick.
// It is safe to read from any goroutine.
type Status struct {
	State      RunState    `json:"state"`
	Mode       string      `json:"mode"`
	Tick       uint64      `json:"tick"`
	Generation int         `json:"generation"`
	Alive      int         `json:"alive"`
	Agents     int         `json:"agents"`
	BestScore  int         `json:"best_score"`
	BestIndex  int         `json:"best_index"`
	GroundX    int         `json:"ground_x"`
	PipeGap    int         `json:"pipe_gap"`
	Pipes      []PipeView  `json:"pipes"`
	Bodies     []AgentView `json:"bodies"`
}

// PipeView is the published position of one obstacle pair.
type PipeView struct {
	X            int `json:"x"`
	Width        int `json:"width"`
	TopHeight    int `json:"top_height"`
	BottomHeight int `json:"bottom_height"`
}

// AgentView is the published state of one agent.
type AgentView struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Alive    bool `json:"alive"`
	Score    int  `json:"score"`
	Distance int  `json:"distance"`
	Rotation int  `json:"rotation"`
}

// Champion is the best agent of a finished generation.
type Champion struct {
	RunID      string
	Generation int
	Fitness    float64
	Score      int
	Weights    neural.BrainWeights
}

// Status returns the most recently published status.
func (e *Engine) Status() Status {
	return *e.status.Load()
}

// publish builds and stores a fresh status from the loop goroutine.
func (e *Engine) publish() {
	agents := e.mode.Agents()
	pairs := e.obstacles.Pairs()

	s := &Status{
		State:     e.State(),
		Mode:      e.mode.Kind().String(),
		Tick:      e.tick,
		Agents:    len(agents),
		BestIndex: -1,
		GroundX:   e.env.GroundX,
		PipeGap:   e.env.Gap,
		Pipes:     make([]PipeView, len(pairs)),
		Bodies:    make([]AgentView, len(agents)),
	}
	if pop, ok := e.mode.Population(); ok {
		s.Generation = pop.Generation()
	}

	for i, p := range pairs {
		s.Pipes[i] = PipeView{X: p.X, Width: p.Width, TopHeight: p.TopHeight, BottomHeight: p.BottomHeight}
	}

	bestFitness := -1.0
	for i, a := range agents {
		if a.Alive {
			s.Alive++
		}
		if a.Player.Score > s.BestScore {
			s.BestScore = a.Player.Score
		}
		if f := a.Fitness(); f > bestFitness {
			bestFitness = f
			s.BestIndex = i
		}
		s.Bodies[i] = AgentView{
			X:        a.Sprite.X,
			Y:        a.Sprite.Y,
			Alive:    a.Alive,
			Score:    a.Player.Score,
			Distance: a.Distance,
			Rotation: a.Rotation,
		}
	}

	e.status.Store(s)
}
