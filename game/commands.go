package game

import (
	"fmt"
)

type commandKind uint8

const (
	cmdStart commandKind = iota
	cmdPause
	cmdEnd
	cmdFlap
	cmdSetPipeGap
)

func (k commandKind) String() string {
	switch k {
	case cmdStart:
		return "start"
	case cmdPause:
		return "pause"
	case cmdEnd:
		return "end"
	case cmdFlap:
		return "flap"
	case cmdSetPipeGap:
		return "set_pipe_gap"
	default:
		return "unknown"
	}
}

type command struct {
	kind commandKind
	gap  int
}

// Start leaves the starting screen. It has no effect in any other state.
func (e *Engine) Start() {
	e.enqueue(command{kind: cmdStart})
}

// Pause toggles between running and paused.
func (e *Engine) Pause() {
	e.enqueue(command{kind: cmdPause})
}

// End stops the run from any state.
func (e *Engine) End() {
	e.enqueue(command{kind: cmdEnd})
}

// Flap makes the human agent flap on the next tick.
func (e *Engine) Flap() {
	e.enqueue(command{kind: cmdFlap})
}

// SetPipeGap sets the gap used from the next Start on.
func (e *Engine) SetPipeGap(gap int) error {
	if gap < 0 || gap > e.env.PlayfieldHeight-2*e.env.MinPipeHeight {
		return fmt.Errorf("pipe gap %d: %w", gap, ErrInvalidArgument)
	}
	e.enqueue(command{kind: cmdSetPipeGap, gap: gap})
	return nil
}

// enqueue never blocks; a full queue drops the command.
func (e *Engine) enqueue(c command) {
	select {
	case e.commands <- c:
	default:
		e.logger.Warn("command queue full, dropping command", "command", c.kind)
	}
}

func (e *Engine) drainCommands() {
	for {
		select {
		case c := <-e.commands:
			e.apply(c)
		default:
			return
		}
	}
}

func (e *Engine) apply(c command) {
	switch c.kind {
	case cmdStart:
		if e.State() != Starting {
			return
		}
		if e.pendingGap != e.env.Gap {
			e.env.Gap = e.pendingGap
			e.obstacles.Reset(e.env)
		}
		for _, a := range e.mode.Agents() {
			a.Player.PipeGap = e.env.Gap
		}
		e.setState(Running)
	case cmdPause:
		switch e.State() {
		case Running:
			e.setState(Paused)
		case Paused:
			e.setState(Running)
		}
	case cmdEnd:
		e.setState(Ended)
	case cmdFlap:
		if e.State() == Running {
			e.mode.Flap()
		}
	case cmdSetPipeGap:
		e.pendingGap = c.gap
	}
}
