package types

// State represents the service lifecycle state.
//
// States follow a defined progression:
//
//	StateInit → StateStarting → StateRunning → StateStopping → StateStopped
//
// A failed start returns the service to StateInit.
type State int

const (
	// StateInit is the initial state before Start is called.
	StateInit State = iota

	// StateStarting indicates the store is being probed and lanes are being built.
	StateStarting

	// StateRunning indicates lanes and the tick loop are running.
	StateRunning

	// StateStopping indicates graceful shutdown is in progress.
	StateStopping

	// StateStopped indicates all components have been shut down.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
