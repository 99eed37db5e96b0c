package game

// RunState is the engine's lifecycle state.
type RunState int32

const (
	Starting RunState = iota
	Running
	Paused
	AdvancingGeneration
	Lost
	Ended
)

func (s RunState) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case AdvancingGeneration:
		return "advancing_generation"
	case Lost:
		return "lost"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and logs.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
