package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	names := map[State]string{
		StateInit:     "Init",
		StateStarting: "Starting",
		StateRunning:  "Running",
		StateStopping: "Stopping",
		StateStopped:  "Stopped",
		State(-1):     "Unknown",
		State(42):     "Unknown",
	}

	for state, want := range names {
		require.Equal(t, want, state.String())
	}
}

func TestState_Progression(t *testing.T) {
	order := []State{StateInit, StateStarting, StateRunning, StateStopping, StateStopped}
	for i := 1; i < len(order); i++ {
		require.Less(t, order[i-1], order[i], "%s must precede %s", order[i-1], order[i])
	}
}
