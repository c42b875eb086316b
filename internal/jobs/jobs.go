package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/skycarbon/skycarbon/internal/hooks"
	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/types"
)

// Job names.
const (
	NameEmissionUpdate = "emission-update"
	NameHourlySnapshot = "hourly-snapshot"
)

// Fetch outcomes reported to metrics.
const (
	FetchData  = "data"
	FetchEmpty = "empty"
	FetchError = "error"
)

// Deps are the collaborators shared by the jobs of one airspace.
type Deps struct {
	Store   types.Store
	Fetcher types.StateFetcher
	Model   types.EmissionComputer
	Clock   types.Clock
	Logger  types.Logger
	Metrics types.EmissionMetrics
	Hooks   *types.Hooks
}

// Runner executes the jobs of one airspace.
type Runner struct {
	jc    types.JobContext
	deps  Deps
	hooks types.Hooks
}

// NewRunner binds deps to one airspace. Nil optional deps get no-op defaults.
func NewRunner(jc types.JobContext, deps Deps) *Runner {
	if deps.Clock == nil {
		deps.Clock = types.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	return &Runner{jc: jc, deps: deps, hooks: hooks.Fill(deps.Hooks)}
}

// EmissionUpdateFactory builds a fresh emission-update job per firing.
func (r *Runner) EmissionUpdateFactory() types.JobFactory {
	return func() types.Job {
		return types.NewJob(NameEmissionUpdate, r.UpdateEmission)
	}
}

// HourlySnapshotFactory builds a fresh hourly-snapshot job per firing.
func (r *Runner) HourlySnapshotFactory() types.JobFactory {
	return func() types.Job {
		return types.NewJob(NameHourlySnapshot, r.TakeSnapshot)
	}
}

// UpdateEmission fetches states, computes a delta and adds it to the total.
//
// A failed fetch or a sample without states is a no-op for this cycle and
// not an error. A negative or non-finite delta is rejected without touching
// the store, so the total never decreases.
func (r *Runner) UpdateEmission(ctx context.Context) error {
	name := r.jc.Airspace.Name

	resp, err := r.deps.Fetcher.FetchStates(ctx, r.jc.Credentials, r.jc.Airspace.Box)
	if err != nil {
		r.deps.Metrics.RecordFetchResult(name, FetchError)
		r.deps.Logger.Warn("state fetch failed, skipping cycle", "airspace", name, "error", err)

		return nil
	}
	if resp == nil || len(resp.States) == 0 {
		r.deps.Metrics.RecordFetchResult(name, FetchEmpty)
		r.deps.Logger.Debug("no state vectors, skipping cycle", "airspace", name)

		return nil
	}
	r.deps.Metrics.RecordFetchResult(name, FetchData)

	at := resp.Time
	if at.IsZero() {
		at = r.deps.Clock.Now()
	}

	delta, err := r.deps.Model.ComputeEmission(ctx, resp.States, at)
	if err != nil {
		return fmt.Errorf("compute emission for %s: %w", name, err)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta < 0 {
		return fmt.Errorf("%w: %s got %v", types.ErrNegativeEmission, name, delta)
	}

	total, err := r.deps.Store.GetTotalCarbon(ctx, name)
	if err != nil {
		return fmt.Errorf("read total for %s: %w", name, err)
	}
	total += delta
	if err := r.deps.Store.SetTotalCarbon(ctx, name, total); err != nil {
		return fmt.Errorf("write total for %s: %w", name, err)
	}

	r.deps.Metrics.RecordEmissionDelta(name, delta)
	r.deps.Metrics.RecordTotalCarbon(name, total)
	r.deps.Logger.Debug("total updated",
		"airspace", name,
		"aircraft", len(resp.States),
		"delta_kg", delta,
		"total_kg", total,
	)

	if err := r.hooks.OnTotalUpdated(ctx, name, delta, total); err != nil {
		r.deps.Logger.Warn("OnTotalUpdated hook error", "airspace", name, "error", err)
	}

	return nil
}

// TakeSnapshot appends (now, total) to the airspace's hourly sequence, with
// now truncated to the second.
func (r *Runner) TakeSnapshot(ctx context.Context) error {
	name := r.jc.Airspace.Name

	total, err := r.deps.Store.GetTotalCarbon(ctx, name)
	if err != nil {
		return fmt.Errorf("read total for %s: %w", name, err)
	}

	// Snapshots are persisted with second precision; truncate so every store agrees.
	snap := types.Snapshot{Time: r.deps.Clock.Now().UTC().Truncate(time.Second), CO2: total}
	if err := r.deps.Store.StoreHourlySnapshot(ctx, name, snap); err != nil {
		return fmt.Errorf("store snapshot for %s: %w", name, err)
	}

	r.deps.Logger.Info("hourly snapshot stored", "airspace", name, "total_kg", total)

	if err := r.hooks.OnSnapshotStored(ctx, name, snap); err != nil {
		r.deps.Logger.Warn("OnSnapshotStored hook error", "airspace", name, "error", err)
	}

	return nil
}
