// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/skycarbon/skycarbon/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, string, string, error) error    = (*NopHooks)(nil).OnJobFailed
	_ func(context.Context, string, float64, float64) error = (*NopHooks)(nil).OnTotalUpdated
	_ func(context.Context, string, types.Snapshot) error   = (*NopHooks)(nil).OnSnapshotStored
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnJobFailed:      h.OnJobFailed,
		OnTotalUpdated:   h.OnTotalUpdated,
		OnSnapshotStored: h.OnSnapshotStored,
	}
}

// Fill returns a copy of hooks with every nil callback replaced by a no-op.
// A nil hooks pointer yields NewNop().
func Fill(hooks *types.Hooks) types.Hooks {
	nop := NewNop()
	if hooks == nil {
		return nop
	}

	filled := *hooks
	if filled.OnJobFailed == nil {
		filled.OnJobFailed = nop.OnJobFailed
	}
	if filled.OnTotalUpdated == nil {
		filled.OnTotalUpdated = nop.OnTotalUpdated
	}
	if filled.OnSnapshotStored == nil {
		filled.OnSnapshotStored = nop.OnSnapshotStored
	}

	return filled
}

// OnJobFailed is a no-op implementation.
func (h *NopHooks) OnJobFailed(_ context.Context, _, _ string, _ error) error {
	return nil
}

// OnTotalUpdated is a no-op implementation.
func (h *NopHooks) OnTotalUpdated(_ context.Context, _ string, _, _ float64) error {
	return nil
}

// OnSnapshotStored is a no-op implementation.
func (h *NopHooks) OnSnapshotStored(_ context.Context, _ string, _ types.Snapshot) error {
	return nil
}
