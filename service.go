package skycarbon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skycarbon/skycarbon/internal/heartbeat"
	"github.com/skycarbon/skycarbon/internal/hooks"
	"github.com/skycarbon/skycarbon/internal/jobs"
	"github.com/skycarbon/skycarbon/internal/lane"
	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/internal/scheduler"
	"github.com/skycarbon/skycarbon/source"
	"github.com/skycarbon/skycarbon/types"
)

// TriggerInfo is a read-only view of a registered trigger.
type TriggerInfo = scheduler.TriggerInfo

// LaneStats is a point-in-time view of one airspace lane.
type LaneStats struct {
	Airspace  string
	Pending   int
	Processed uint64
	Failed    uint64
}

// Service runs one lane and two recurring triggers per configured airspace.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
type Service struct {
	cfg     Config
	store   Store
	fetcher StateFetcher
	factory EmissionModelFactory

	source  AirspaceSource
	readAPI ReadAPI
	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	clock   Clock

	// Internal components, built by the first successful Start. A stopped
	// Service cannot be restarted; create a new one instead.
	scheduler *scheduler.Scheduler
	heartbeat *heartbeat.Publisher
	lanes     []*lane.Lane

	// State management
	state      atomic.Int32 // State
	stateSince atomic.Int64 // unix nanos of the last transition

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// NewService creates a new Service instance with the provided configuration.
//
// Returns a concrete *Service struct following the "accept interfaces, return structs" principle.
//
// Parameters:
//   - cfg: Service configuration (defaults are filled in place)
//   - store: Writable store shared by all lanes
//   - fetcher: State-vector feed client
//   - factory: Builds one emission model per airspace
//   - opts: Optional configuration (source, read API, hooks, metrics, logger, clock)
//
// Returns:
//   - *Service: Initialized service instance
//   - error: Validation error if configuration is invalid or a dependency is nil
//
// Example:
//
//	cfg := skycarbon.DefaultConfig()
//	cfg.Credentials = creds
//	svc, err := skycarbon.NewService(&cfg, st, opensky.NewClient(opensky.DefaultConfig()),
//	    emission.NewFactory(emission.DefaultConfig()))
func NewService(cfg *Config, store Store, fetcher StateFetcher, factory EmissionModelFactory, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if fetcher == nil {
		return nil, ErrStateFetcherRequired
	}
	if factory == nil {
		return nil, ErrEmissionModelRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	src := options.source
	if src == nil {
		src = source.NewStatic(source.DefaultAirspaces())
	}

	clock := options.clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	s := &Service{
		cfg:     *cfg,
		store:   store,
		fetcher: fetcher,
		factory: factory,
		source:  src,
		readAPI: options.readAPI,
		hooks:   hooks.Fill(options.hooks),
		metrics: metricsCollector,
		logger:  loggerInstance,
		clock:   clock,
	}

	s.state.Store(int32(StateInit))
	s.stateSince.Store(time.Now().UnixNano())

	return s, nil
}

// Start brings the service up.
//
// Startup sequence:
//  1. Probe the store; failure aborts before anything is written
//  2. Read and validate airspaces, then write the registry and startup time
//  3. Build a lane and its two triggers for every airspace with credentials
//  4. Start lanes and dispatch one immediate emission update per airspace
//  5. Start the read API (if any), the heartbeat and the tick loop
//
// A failed Start leaves the service in StateInit with no goroutines running,
// so it may be retried. Start after Stop returns ErrAlreadyStarted.
//
// Parameters:
//   - ctx: Context for cancellation and timeout of the startup steps
//
// Returns:
//   - error: ErrAlreadyStarted, an error wrapping ErrStoreUnavailable, or a startup error
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return ErrAlreadyStarted
	}

	s.transitionState(StateInit, StateStarting)

	if err := s.start(ctx); err != nil {
		s.transitionState(StateStarting, StateInit)

		return err
	}

	s.transitionState(StateStarting, StateRunning)

	return nil
}

func (s *Service) start(ctx context.Context) error {
	startupCtx := ctx
	if s.cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = context.WithTimeout(ctx, s.cfg.StartupTimeout)
		defer cancel()
	}

	// Step 1: Store liveness
	if err := s.store.IsRunning(startupCtx); err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.logger.Error("store is not reachable, aborting startup", "error", err)

		return fmt.Errorf("store liveness check failed: %w", err)
	}

	// Step 2: Registry and startup time
	airspaces, err := s.listAirspaces(startupCtx)
	if err != nil {
		return err
	}

	registry := make(map[string]BoundingBox, len(airspaces))
	for _, a := range airspaces {
		registry[a.Name] = a.Box
	}
	if err := s.store.SetAirspaces(startupCtx, registry); err != nil {
		return fmt.Errorf("failed to write airspace registry: %w", err)
	}

	startedAt := s.clock.Now().UTC()
	if err := s.store.SetStartupTime(startupCtx, startedAt); err != nil {
		return fmt.Errorf("failed to write startup time: %w", err)
	}

	// Step 3: Lanes and triggers
	sched := scheduler.New(scheduler.Config{
		TickInterval: s.cfg.TickInterval,
		Clock:        s.clock,
		Logger:       s.logger,
		Metrics:      s.metrics,
	})

	lanes := make([]*lane.Lane, 0, len(airspaces))
	for _, a := range airspaces {
		l := s.buildLane(sched, a)
		if l != nil {
			lanes = append(lanes, l)
		}
	}

	// Step 4: Start lanes and dispatch the first update round
	for _, l := range lanes {
		if err := l.Start(); err != nil {
			s.drainLanes(context.Background(), lanes)

			return fmt.Errorf("failed to start lane %s: %w", l.Airspace(), err)
		}
	}
	dispatched := sched.RunDue(TagEmissionUpdate)

	// Step 5: Read API, heartbeat, tick loop
	if s.readAPI != nil {
		if err := s.readAPI.Start(ctx); err != nil {
			s.drainLanes(context.Background(), lanes)

			return fmt.Errorf("failed to start read API: %w", err)
		}
	}

	hb := heartbeat.New(s.store, s.cfg.HeartbeatInterval)
	hb.SetLogger(s.logger)
	hb.SetMetrics(s.metrics)
	hb.SetClock(s.clock)

	runCtx, cancel := context.WithCancel(context.Background())
	if err := hb.Start(runCtx); err != nil {
		cancel()
		s.stopReadAPI(context.Background())
		s.drainLanes(context.Background(), lanes)

		return fmt.Errorf("failed to start heartbeat: %w", err)
	}

	s.ctx, s.cancel = runCtx, cancel
	s.scheduler = sched
	s.heartbeat = hb
	s.lanes = lanes

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := sched.Run(runCtx); err != nil {
			s.logger.Error("tick loop exited", "error", err)
		}
	}()

	s.metrics.RecordActiveLanes(len(lanes))
	s.logger.Info("service started",
		"airspaces", len(airspaces),
		"lanes", len(lanes),
		"dispatched", dispatched,
		"cadence", s.cfg.UpdateCadence.String(),
		"startup_time", startedAt,
	)

	return nil
}

// listAirspaces reads airspaces from the source and rejects malformed or
// duplicate entries.
func (s *Service) listAirspaces(ctx context.Context) ([]Airspace, error) {
	airspaces, err := s.source.ListAirspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list airspaces: %w", err)
	}

	seen := make(map[string]struct{}, len(airspaces))
	for _, a := range airspaces {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate airspace %q", ErrInvalidAirspace, a.Name)
		}
		seen[a.Name] = struct{}{}
	}

	return airspaces, nil
}

// buildLane creates the lane and triggers for one airspace.
// It returns nil when the airspace is skipped.
func (s *Service) buildLane(sched *scheduler.Scheduler, a Airspace) *lane.Lane {
	creds := s.cfg.Credentials[a.Name]
	if !creds.Complete() {
		s.logger.Warn("airspace has no complete credentials, skipping", "airspace", a.Name)

		return nil
	}

	model := s.factory(a)
	if model == nil {
		s.logger.Warn("emission model factory returned nil, skipping", "airspace", a.Name)

		return nil
	}

	l := lane.New(a.Name, lane.Config{
		JobTimeout:  s.cfg.JobTimeout,
		Logger:      s.logger,
		Metrics:     s.metrics,
		OnJobFailed: s.hooks.OnJobFailed,
	})

	runner := jobs.NewRunner(JobContext{Airspace: a, Credentials: creds}, jobs.Deps{
		Store:   s.store,
		Fetcher: s.fetcher,
		Model:   model,
		Clock:   s.clock,
		Logger:  s.logger,
		Metrics: s.metrics,
		Hooks:   &s.hooks,
	})

	if _, err := sched.Register(scheduler.TriggerSpec{
		Name:    a.Name + "/" + TagEmissionUpdate,
		Tag:     TagEmissionUpdate,
		Cadence: s.cfg.UpdateCadence,
		Target:  l,
		Factory: runner.EmissionUpdateFactory(),
	}); err != nil {
		s.logger.Warn("emission update trigger not registered",
			"airspace", a.Name,
			"cadence", s.cfg.UpdateCadence.String(),
			"error", err,
		)
	}

	if _, err := sched.Register(scheduler.TriggerSpec{
		Name:    a.Name + "/" + TagHourlySnapshot,
		Tag:     TagHourlySnapshot,
		Cadence: SnapshotCadence,
		Target:  l,
		Factory: runner.HourlySnapshotFactory(),
	}); err != nil {
		s.logger.Warn("hourly snapshot trigger not registered", "airspace", a.Name, "error", err)
	}

	s.logger.Debug("lane built", "airspace", a.Name, "credentials", creds.String())

	return l
}

// Stop gracefully shuts down the service.
//
// Shutdown sequence (reverse of startup):
//  1. Stop the tick loop so no new jobs are dispatched
//  2. Stop the read API and wait for it
//  3. Stop the heartbeat
//  4. Drain every lane; jobs submitted before Stop still run
//
// The lane drain is bounded by ShutdownTimeout and by ctx, whichever is
// shorter. Jobs still running then see their context cancelled.
//
// Parameters:
//   - ctx: Context for shutdown timeout
//
// Returns:
//   - error: ErrNotStarted, or the joined shutdown errors
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil || s.State() != StateRunning {
		return ErrNotStarted
	}

	s.transitionState(StateRunning, StateStopping)

	// Step 1: Tick loop
	s.cancel()
	s.wg.Wait()

	var shutdownErr error

	// Step 2: Read API
	if err := s.stopReadAPI(ctx); err != nil {
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("read API stop failed: %w", err))
	}

	// Step 3: Heartbeat (ignore ErrNotStarted)
	if err := s.heartbeat.Stop(); err != nil && !errors.Is(err, heartbeat.ErrNotStarted) {
		s.logger.Error("failed to stop heartbeat", "error", err)
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("heartbeat stop failed: %w", err))
	}

	// Step 4: Lanes
	drainCtx := ctx
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := s.drainLanes(drainCtx, s.lanes); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	s.metrics.RecordActiveLanes(0)
	s.transitionState(StateStopping, StateStopped)

	if shutdownErr != nil {
		s.logger.Error("service stopped with errors", "error", shutdownErr)
		return shutdownErr
	}
	s.logger.Info("service stopped gracefully")

	return nil
}

// Run starts the service, blocks until ctx is cancelled, then stops it.
//
// The stop phase is detached from ctx and bounded by ShutdownTimeout.
//
// Parameters:
//   - ctx: Lifetime of the service
//
// Returns:
//   - error: Start error, or the error returned by Stop
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx := context.WithoutCancel(ctx)
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(stopCtx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	return s.Stop(stopCtx)
}

// State returns the current service state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Lanes returns a snapshot of every lane, ordered by airspace name.
func (s *Service) Lanes() []LaneStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]LaneStats, 0, len(s.lanes))
	for _, l := range s.lanes {
		stats = append(stats, LaneStats{
			Airspace:  l.Airspace(),
			Pending:   l.Pending(),
			Processed: l.Processed(),
			Failed:    l.Failed(),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Airspace < stats[j].Airspace })

	return stats
}

// Triggers returns all registered triggers ordered by next due time.
// It is empty before the first successful Start.
func (s *Service) Triggers() []TriggerInfo {
	s.mu.RLock()
	sched := s.scheduler
	s.mu.RUnlock()

	if sched == nil {
		return nil
	}

	return sched.Triggers()
}

// RunDue fires every trigger with the given tag once, outside its cadence.
//
// Returns:
//   - int: Number of jobs handed to lanes (0 when the service is not running)
func (s *Service) RunDue(tag string) int {
	s.mu.RLock()
	sched := s.scheduler
	s.mu.RUnlock()

	if sched == nil || s.State() != StateRunning {
		return 0
	}

	return sched.RunDue(tag)
}

func (s *Service) stopReadAPI(ctx context.Context) error {
	if s.readAPI == nil {
		return nil
	}

	if err := s.readAPI.Stop(ctx); err != nil {
		s.logger.Error("failed to stop read API", "error", err)
		return err
	}

	return nil
}

// drainLanes stops all lanes in parallel and waits for them or ctx.
func (s *Service) drainLanes(ctx context.Context, lanes []*lane.Lane) error {
	errCh := make(chan error, len(lanes))

	var wg sync.WaitGroup
	for _, l := range lanes {
		wg.Add(1)
		go func(l *lane.Lane) {
			defer wg.Done()
			if err := l.Stop(ctx); err != nil {
				s.logger.Error("lane did not drain in time", "airspace", l.Airspace(), "pending", l.Pending(), "error", err)
				errCh <- fmt.Errorf("lane %s: %w", l.Airspace(), err)
			}
		}(l)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// transitionState moves to a new state and records the transition.
func (s *Service) transitionState(from, to State) {
	s.state.Store(int32(to)) //nolint:gosec // State values are controlled enum

	now := time.Now().UnixNano()
	since := s.stateSince.Swap(now)

	s.logger.Info("state transition", "from", from.String(), "to", to.String())
	s.metrics.RecordStateTransition(from, to, time.Duration(now-since).Seconds())
}
