package tracker

// State is the lifecycle state of a tracking session. The only legal
// transitions are Idle -> Running (Start) and Running -> Stopped (Stop);
// a session is single-use once stopped.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
