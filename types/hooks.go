package types

import "context"

// Hooks defines callbacks for job lifecycle events.
//
// All hooks are optional and called synchronously from the lane goroutine that
// ran the job, so a hook for one airspace never runs concurrently with another
// job of the same airspace.
//
// IMPORTANT: Hook execution behavior:
//   - A slow hook delays the next job on the same lane
//   - Hook errors are logged but never fail the job
//   - Hook panics are recovered by the lane like job panics
//
// Example:
//
//	hooks := &skycarbon.Hooks{
//	    OnTotalUpdated: func(ctx context.Context, airspace string, delta, total float64) error {
//	        log.Printf("%s: +%.2f kg (total %.2f)", airspace, delta, total)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnJobFailed is called when a job returns an error or panics.
	OnJobFailed func(ctx context.Context, airspace, job string, err error) error

	// OnTotalUpdated is called after an update job wrote a new total.
	OnTotalUpdated func(ctx context.Context, airspace string, delta, total float64) error

	// OnSnapshotStored is called after a snapshot job appended a record.
	OnSnapshotStored func(ctx context.Context, airspace string, snapshot Snapshot) error
}
