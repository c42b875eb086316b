package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/types"
)

// Errors returned by the server lifecycle.
var (
	ErrAlreadyStarted = errors.New("api server already started")
	ErrNotStarted     = errors.New("api server not started")
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8000". Port 0 picks a free port.
	Addr string `yaml:"addr"`

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`

	// RequestTimeout bounds store reads made for one request.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// AllowedOrigins lists browser origins accepted on /ws/totals ("*" for
	// any). Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:8000",
		ReadHeaderTimeout: 10 * time.Second,
		RequestTimeout:    5 * time.Second,
	}
}

// SetDefaults fills zero fields from DefaultConfig.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger types.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry exposed on /metrics.
// Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTotalsWatcher enables the /ws/totals stream.
func WithTotalsWatcher(w TotalsWatcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// Server is the read-only HTTP surface.
type Server struct {
	cfg      Config
	reader   types.StoreReader
	watcher  TotalsWatcher
	logger   types.Logger
	gatherer prometheus.Gatherer
	handler  http.Handler

	mu      sync.Mutex
	srv     *http.Server
	addr    net.Addr
	doneCh  chan struct{}
	closing chan struct{}
}

// New creates a server over reader.
//
// Example:
//
//	srv := api.New(api.Config{Addr: ":8000"}, st, api.WithLogger(logger))
//	if err := srv.Start(ctx); err != nil { /* handle */ }
//	defer srv.Stop(context.Background())
func New(cfg Config, reader types.StoreReader, opts ...Option) *Server {
	cfg.SetDefaults()

	s := &Server{
		cfg:      cfg,
		reader:   reader,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()

	return s
}

// Handler returns the router, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /startup", s.handleStartup)
	mux.HandleFunc("GET /airspaces", s.handleAirspaces)
	mux.HandleFunc("GET /totals", s.handleTotals)
	mux.HandleFunc("GET /airspaces/{id}/total", s.handleTotal)
	mux.HandleFunc("GET /airspaces/{id}/hourly", s.handleHourly)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	if s.watcher != nil {
		mux.HandleFunc("GET /ws/totals", s.handleTotalsStream)
	}

	return mux
}

// Start binds the listen address and serves in the background. It returns
// once the socket is bound, so a port conflict is reported here.
//
// Returns:
//   - error: ErrAlreadyStarted or the listen error
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.cfg.Addr, err)
	}

	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.addr = ln.Addr()
	s.doneCh = make(chan struct{})
	s.closing = make(chan struct{})

	srv, done := s.srv, s.doneCh
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped unexpectedly", "error", err)
		}
	}()

	s.logger.Info("api server listening", "addr", s.addr.String())

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr == nil {
		return ""
	}

	return s.addr.String()
}

// closingCh is closed when Stop begins. Hijacked websocket connections are
// not tracked by http.Server.Shutdown, so streams watch it instead. Nil
// (never ready) when the handler is served without Start.
func (s *Server) closingCh() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closing
}

// Stop gracefully shuts the server down and waits for the serve goroutine.
//
// Returns:
//   - error: ErrNotStarted, or the shutdown error when ctx expires first
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.doneCh
	s.srv = nil
	if s.closing != nil {
		close(s.closing)
		s.closing = nil
	}
	s.mu.Unlock()

	if srv == nil {
		return ErrNotStarted
	}

	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
	}
	<-done

	s.logger.Info("api server stopped")

	return err
}
