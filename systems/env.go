// Package systems contains the pure per-tick rules of the simulation:
// obstacle generation, agent motion, collision and sensing.
package systems

import (
	"github.com/pthm-cable/flappy/config"
)

// Env is the simulation context passed to every step function.
// It replaces process-wide geometry and scroll globals.
type Env struct {
	Cols, Rows int
	Unit       int

	// Board bounds in pixels
	Left, Right     int
	Top, Ground     int
	PlayfieldHeight int

	FPS              int
	ScrollSpeed      int     // Horizontal pixels per tick
	WaveAmplitude    float64 // Peak vertical pixels per tick
	MaxPhase         int
	AscentIncrement  int
	DescentIncrement int

	MinPipeHeight int
	PipeWidth     int
	Gap           int
	SpawnInterval int

	SpriteScale  float64
	HitboxScale  float64
	HitboxOffset float64

	// GroundX is the world scroll position; it keeps moving while paused.
	GroundX int
}

// NewEnv builds a simulation context from configuration.
func NewEnv(cfg *config.Config) Env {
	d := cfg.Derived
	return Env{
		Cols:             cfg.Board.Cols,
		Rows:             cfg.Board.Rows,
		Unit:             cfg.Board.Unit,
		Left:             d.Left,
		Right:            d.Right,
		Top:              d.Top,
		Ground:           d.Ground,
		PlayfieldHeight:  d.PlayfieldHeight,
		FPS:              cfg.Physics.FPS,
		ScrollSpeed:      d.ScrollSpeed,
		WaveAmplitude:    d.WaveAmplitude,
		MaxPhase:         cfg.Physics.MaxPhase,
		AscentIncrement:  cfg.Physics.AscentIncrement,
		DescentIncrement: cfg.Physics.DescentIncrement,
		MinPipeHeight:    d.MinPipeHeight,
		PipeWidth:        d.PipeWidth,
		Gap:              cfg.Pipes.Gap,
		SpawnInterval:    cfg.Pipes.SpawnInterval,
		SpriteScale:      cfg.Agent.SpriteScale,
		HitboxScale:      cfg.Agent.HitboxScale,
		HitboxOffset:     cfg.Agent.HitboxOffset,
	}
}

// Width returns the board width in pixels.
func (e Env) Width() int {
	return e.Right - e.Left
}

// Rect is an axis-aligned rectangle in board pixels, y growing downwards.
type Rect struct {
	X, Y, W, H int
}

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() int {
	return r.Y + r.H/2
}
