package systems

import (
	"github.com/pthm-cable/flappy/neural"
)

// NearestAhead returns the leftmost pair whose right edge is not yet behind
// the hitbox.
func NearestAhead(hb Rect, pairs []Pair) (Pair, bool) {
	var best Pair
	found := false
	for _, p := range pairs {
		if p.X+p.Width < hb.X {
			continue
		}
		if !found || p.X < best.X {
			best = p
			found = true
		}
	}
	return best, found
}

// Sense computes the normalized inputs for one agent.
// With no pair ahead the distance saturates at 1 and the gap is assumed to
// be centered in the playfield.
func Sense(env Env, b Body, pairs []Pair) neural.SensoryInputs {
	hb := b.Hitbox
	height := float32(env.PlayfieldHeight)
	if height <= 0 {
		height = 1
	}
	width := float32(env.Width())
	if width <= 0 {
		width = 1
	}

	var inputs neural.SensoryInputs
	gapCenter := env.Top + env.PlayfieldHeight/2
	if p, ok := NearestAhead(hb, pairs); ok {
		inputs.PipeDistance = float32(p.X-hb.X) / width
		gapCenter = p.GapCenter(env)
	} else {
		inputs.PipeDistance = 1
	}
	inputs.GapOffset = float32(gapCenter-hb.CenterY()) / height
	inputs.Altitude = float32(hb.Y-env.Top) / height
	inputs.Velocity = float32(b.VelocityY) / float32(env.Unit)
	inputs.Ascending = b.MovingUp
	return inputs
}
