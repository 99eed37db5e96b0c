package systems

// UpdateScore evaluates one agent's scoring latch for a tick.
// An open latch scores once when the hitbox is between any pair; the latch
// then follows the between predicate, re-arming once the agent leaves every gap.
func UpdateScore(env Env, hb Rect, pairs []Pair, latched bool) (scored, latch bool) {
	between := BetweenAny(env, hb, pairs)
	return between && !latched, between
}
