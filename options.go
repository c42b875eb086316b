package skycarbon

import "context"

// Option configures a Service with optional dependencies.
type Option func(*serviceOptions)

// serviceOptions holds optional Service configuration.
type serviceOptions struct {
	source  AirspaceSource
	readAPI ReadAPI
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	clock   Clock
}

// ReadAPI is a separately lifecycled component that serves stored data.
//
// The Service starts it after the first emission round was dispatched and
// stops it before draining lanes. Implementations must return from Start
// promptly and keep serving in the background.
type ReadAPI interface {
	// Start begins serving. It must not block until shutdown.
	Start(ctx context.Context) error

	// Stop terminates serving and waits for in-flight requests or ctx.
	Stop(ctx context.Context) error
}

// WithAirspaceSource sets where airspaces are read from during Start.
//
// Parameters:
//   - src: AirspaceSource implementation
//
// Returns:
//   - Option: Functional option for NewService
//
// Example:
//
//	src := source.FromMap(map[string]skycarbon.BoundingBox{"berlin": box})
//	svc, err := skycarbon.NewService(&cfg, st, fetcher, factory, skycarbon.WithAirspaceSource(src))
func WithAirspaceSource(src AirspaceSource) Option {
	return func(o *serviceOptions) {
		o.source = src
	}
}

// WithReadAPI attaches a read API whose lifecycle follows the Service.
//
// Parameters:
//   - readAPI: ReadAPI implementation, usually *api.Server
//
// Returns:
//   - Option: Functional option for NewService
//
// Example:
//
//	srv := api.New(api.DefaultConfig(), st)
//	svc, err := skycarbon.NewService(&cfg, st, fetcher, factory, skycarbon.WithReadAPI(srv))
func WithReadAPI(readAPI ReadAPI) Option {
	return func(o *serviceOptions) {
		o.readAPI = readAPI
	}
}

// WithHooks sets job lifecycle hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewService
//
// Example:
//
//	hooks := &skycarbon.Hooks{
//	    OnJobFailed: func(ctx context.Context, airspace, job string, err error) error {
//	        alert(airspace, job, err)
//	        return nil
//	    },
//	}
//	svc, err := skycarbon.NewService(&cfg, st, fetcher, factory, skycarbon.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *serviceOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewService
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *serviceOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewService
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithClock replaces the system clock, mainly for tests.
//
// The clock drives trigger due times, snapshot timestamps and the startup time.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}
