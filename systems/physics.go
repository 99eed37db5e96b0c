package systems

import (
	"math"
)

// Body holds an agent's kinematic state. The hitbox moves with the sprite
// and always stays inside it.
type Body struct {
	Sprite Rect
	Hitbox Rect

	MovingUp  bool
	Phase     int // Frames since the current motion started
	Rotation  int // Presentation only
	VelocityY int // Last vertical displacement, positive = falling
}

// StartBody returns a body at the start position for the given board.
func StartBody(env Env) Body {
	u := float64(env.Unit)
	sprite := Rect{
		X: int((float64(env.Cols) - 1.5) * u / 2),
		Y: (env.Rows - 3) * env.Unit / 2,
		W: int(env.SpriteScale * u),
		H: int(env.SpriteScale * u),
	}
	offset := int(env.HitboxOffset * u)
	return Body{
		Sprite: sprite,
		Hitbox: Rect{
			X: sprite.X + offset,
			Y: sprite.Y + offset,
			W: int(env.HitboxScale * u),
			H: int(env.HitboxScale * u),
		},
	}
}

// MoveUp shifts the body up by dy pixels (negative dy moves it down).
func (b *Body) MoveUp(dy int) {
	b.Sprite.Y -= dy
	b.Hitbox.Y -= dy
}

// MoveLeft shifts the body left by dx pixels.
func (b *Body) MoveLeft(dx int) {
	b.Sprite.X -= dx
	b.Hitbox.X -= dx
}

// Flap starts a new ascent.
func (b *Body) Flap() {
	b.Phase = 0
	b.MovingUp = true
}

// StepVertical applies one tick of the hand-tuned flight waveform.
// Descent follows a sine whose phase saturates at MaxPhase; ascent follows a
// cosine and reverts to descent once the phase reaches MaxPhase.
func StepVertical(env Env, b *Body) {
	if b.MovingUp && b.Phase >= env.MaxPhase {
		b.MovingUp = false
		b.Phase = 0
	}

	var dy int
	if !b.MovingUp {
		b.Rotation++
		dy = -int(math.Ceil(env.WaveAmplitude * math.Sin(float64(b.Phase)/float64(env.FPS))))
		if b.Phase < env.MaxPhase {
			b.Phase += env.DescentIncrement
		}
	} else {
		b.Rotation = 0
		dy = int(math.Floor(env.WaveAmplitude * math.Cos(float64(b.Phase)/float64(env.FPS))))
		b.Phase += env.AscentIncrement
	}

	b.MoveUp(dy)
	b.VelocityY = -dy
}

// Drift moves a dead body left with the world until it leaves the board.
// Returns false once the body is off-screen and no longer updated.
func Drift(env Env, b *Body) bool {
	if b.Sprite.X < env.Left-b.Sprite.W {
		return false
	}
	b.MoveLeft(env.ScrollSpeed)
	return true
}

// Idle performs the starting-screen sprite bookkeeping for one toggle.
func Idle(env Env, b *Body) {
	if b.Phase != 0 {
		b.MovingUp = !b.MovingUp
	}
	b.Rotation = 0
	b.Phase = env.MaxPhase
}

// OutOfBounds reports whether the body hit the ground or left through the top.
func OutOfBounds(env Env, b Body) bool {
	return b.Sprite.Y >= env.Ground || b.Sprite.Y < env.Top
}
