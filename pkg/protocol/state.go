package protocol

// State is the lifecycle state of a server adapter.
type State uint8

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping

	// StateFaulted is entered on an unrecoverable transport error while
	// running. It is terminal until an explicit restart.
	StateFaulted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
