package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/types"
)

// DefaultTickInterval is the period of the tick loop when none is configured.
const DefaultTickInterval = time.Second

// TriggerSpec describes a recurring trigger.
type TriggerSpec struct {
	// Name is a human-readable label, e.g. "berlin/emission-update".
	Name string

	// Tag groups triggers for RunDue, e.g. "emission-update".
	Tag string

	// Cadence is the firing period.
	Cadence types.Cadence

	// Target receives the built jobs. Usually a lane.
	Target types.Submitter

	// Factory builds one job per firing.
	Factory types.JobFactory
}

// TriggerInfo is a read-only view of a registered trigger.
type TriggerInfo struct {
	ID      string
	Name    string
	Tag     string
	Cadence types.Cadence
	NextDue time.Time
	Fired   uint64
}

type trigger struct {
	id      string
	spec    TriggerSpec
	period  time.Duration
	nextDue time.Time
	fired   uint64
}

// Config holds scheduler settings and optional dependencies.
type Config struct {
	// TickInterval is how often Run checks for due triggers.
	TickInterval time.Duration

	// Clock supplies "now" for Register and Run. Defaults to the system clock.
	Clock types.Clock

	Logger  types.Logger
	Metrics types.SchedulerMetrics
}

// Scheduler owns a set of triggers and the tick loop that fires them.
//
// Thread Safety:
//   - Register, Tick, RunDue and Triggers are safe for concurrent use
type Scheduler struct {
	cfg Config

	mu       sync.Mutex
	triggers []*trigger

	running atomic.Bool
}

// New creates a scheduler with no triggers.
func New(cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}

	return &Scheduler{cfg: cfg}
}

// Register adds a trigger whose first due time is now + cadence.
//
// Parameters:
//   - spec: Trigger definition; Target and Factory are required
//
// Returns:
//   - string: Trigger ID
//   - error: ErrInvalidCadence, ErrTriggerTargetRequired or ErrTriggerFactoryRequired
func (s *Scheduler) Register(spec TriggerSpec) (string, error) {
	period, err := spec.Cadence.Duration()
	if err != nil {
		return "", fmt.Errorf("trigger %q: %w", spec.Name, err)
	}
	if period <= 0 {
		return "", fmt.Errorf("trigger %q: %w: non-positive period %v", spec.Name, types.ErrInvalidCadence, period)
	}
	if spec.Target == nil {
		return "", fmt.Errorf("trigger %q: %w", spec.Name, types.ErrTriggerTargetRequired)
	}
	if spec.Factory == nil {
		return "", fmt.Errorf("trigger %q: %w", spec.Name, types.ErrTriggerFactoryRequired)
	}

	t := &trigger{
		id:      uuid.NewString(),
		spec:    spec,
		period:  period,
		nextDue: s.cfg.Clock.Now().Add(period),
	}

	s.mu.Lock()
	s.triggers = append(s.triggers, t)
	s.mu.Unlock()

	s.cfg.Logger.Debug("trigger registered",
		"trigger", spec.Name,
		"tag", spec.Tag,
		"cadence", spec.Cadence.String(),
		"next_due", t.nextDue,
	)

	return t.id, nil
}

// Tick fires every trigger whose due time is at or before now.
//
// Returns:
//   - int: Number of triggers fired
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	var due []*trigger
	for _, t := range s.triggers {
		if t.nextDue.After(now) {
			continue
		}

		t.nextDue = t.nextDue.Add(t.period)
		if !t.nextDue.After(now) {
			skipped := int(now.Sub(t.nextDue)/t.period) + 1
			t.nextDue = t.nextDue.Add(time.Duration(skipped) * t.period)

			s.cfg.Logger.Warn("trigger fell behind, coalescing missed periods",
				"trigger", t.spec.Name,
				"tag", t.spec.Tag,
				"skipped_periods", skipped,
				"next_due", t.nextDue,
			)
			s.cfg.Metrics.RecordTriggerCoalesced(t.spec.Tag, skipped)
		}
		t.fired++
		due = append(due, t)
	}
	s.mu.Unlock()

	for _, t := range due {
		s.fire(t)
	}

	return len(due)
}

// RunDue fires every trigger carrying tag exactly once, leaving due times
// unchanged.
//
// Returns:
//   - int: Number of triggers fired
func (s *Scheduler) RunDue(tag string) int {
	s.mu.Lock()
	var tagged []*trigger
	for _, t := range s.triggers {
		if t.spec.Tag == tag {
			t.fired++
			tagged = append(tagged, t)
		}
	}
	s.mu.Unlock()

	for _, t := range tagged {
		s.fire(t)
	}

	return len(tagged)
}

// Run ticks every TickInterval until ctx is cancelled.
//
// Returns:
//   - error: ErrSchedulerRunning if a loop is already running, otherwise nil
//     after ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return types.ErrSchedulerRunning
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(s.cfg.Clock.Now())
		}
	}
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Triggers returns all registered triggers ordered by next due time.
func (s *Scheduler) Triggers() []TriggerInfo {
	s.mu.Lock()
	infos := make([]TriggerInfo, 0, len(s.triggers))
	for _, t := range s.triggers {
		infos = append(infos, TriggerInfo{
			ID:      t.id,
			Name:    t.spec.Name,
			Tag:     t.spec.Tag,
			Cadence: t.spec.Cadence,
			NextDue: t.nextDue,
			Fired:   t.fired,
		})
	}
	s.mu.Unlock()

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].NextDue.Before(infos[j].NextDue)
	})

	return infos
}

// fire builds a job and hands it to the target. Submission never blocks.
func (s *Scheduler) fire(t *trigger) {
	job := t.spec.Factory()
	if err := t.spec.Target.Submit(job); err != nil {
		s.cfg.Logger.Warn("trigger submit rejected",
			"trigger", t.spec.Name,
			"tag", t.spec.Tag,
			"error", err,
		)
		s.cfg.Metrics.RecordTriggerSubmitFailed(t.spec.Tag)

		return
	}

	s.cfg.Metrics.RecordTriggerFired(t.spec.Tag)
}
