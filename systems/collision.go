package systems

// Collides reports whether a hitbox touches either pipe of a pair.
// The rules are checked in order; any match is fatal.
func Collides(env Env, hb Rect, p Pair) bool {
	topEdge := p.TopEdge(env)
	bottomEdge := p.BottomEdge(env)

	// Bottom pipe, hit from above
	if hb.X+hb.W >= p.X && hb.X <= p.X+p.Width && hb.Y+hb.H >= bottomEdge {
		return true
	}

	// Top pipe, hit from below
	if hb.X >= p.X && hb.X <= p.X+p.Width && hb.Y <= topEdge {
		return true
	}

	// Side clip on the near edge, covering what the two rules above miss
	if hb.X+hb.W >= p.X && hb.X <= p.X+env.Unit && (hb.Y <= topEdge || hb.Y >= bottomEdge) {
		return true
	}

	return false
}

// CollidesAny reports whether the hitbox touches any pair.
func CollidesAny(env Env, hb Rect, pairs []Pair) bool {
	for _, p := range pairs {
		if Collides(env, hb, p) {
			return true
		}
	}
	return false
}

// Between reports whether the hitbox overlaps the pair horizontally and sits
// strictly inside its gap.
func Between(env Env, hb Rect, p Pair) bool {
	return hb.X+hb.W >= p.X &&
		hb.X <= p.X+p.Width &&
		hb.Y > p.TopEdge(env) &&
		hb.Y+hb.H < p.BottomEdge(env)
}

// BetweenAny reports whether the hitbox is inside the gap of any pair.
func BetweenAny(env Env, hb Rect, pairs []Pair) bool {
	for _, p := range pairs {
		if Between(env, hb, p) {
			return true
		}
	}
	return false
}
