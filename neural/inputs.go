package neural

// NumInputs is the fixed width of the sensed-state vector.
const NumInputs = 5

// SensoryInputs holds the sensed state of one agent for one tick.
// All fields are already normalized by the caller.
type SensoryInputs struct {
	PipeDistance float32 // Hitbox left edge to nearest pair ahead / board width [0,1]
	GapOffset    float32 // (gap center - hitbox center) / playfield height [-1,1]
	Altitude     float32 // Hitbox top / playfield height [0,1]
	Velocity     float32 // Last vertical displacement / unit (positive = falling)
	Ascending    bool
}

// ToInputs converts the sensed state to the network input vector.
// Layout: distance, gap offset, altitude, velocity, ascending flag.
func (s SensoryInputs) ToInputs() []float64 {
	asc := 0.0
	if s.Ascending {
		asc = 1
	}
	return []float64{
		float64(clampInput(s.PipeDistance, 0, 1)),
		float64(clampInput(s.GapOffset, -1, 1)),
		float64(clampInput(s.Altitude, -1, 2)),
		float64(s.Velocity),
		asc,
	}
}

func clampInput(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
