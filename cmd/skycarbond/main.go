// Command skycarbond runs the per-airspace carbon emission service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/skycarbon/skycarbon"
	"github.com/skycarbon/skycarbon/api"
	"github.com/skycarbon/skycarbon/emission"
	"github.com/skycarbon/skycarbon/internal/config"
	"github.com/skycarbon/skycarbon/internal/kvutil"
	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/internal/natsutil"
	"github.com/skycarbon/skycarbon/internal/writerlock"
	"github.com/skycarbon/skycarbon/opensky"
	"github.com/skycarbon/skycarbon/source"
	"github.com/skycarbon/skycarbon/store"
	"github.com/skycarbon/skycarbon/types"
)

func main() {
	configPath := flag.String("config", "configs/skycarbond.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("skycarbond failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// run wires every component from cfg and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *logging.SlogLogger) error {
	var (
		reg       *prometheus.Registry
		collector types.MetricsCollector = metrics.NewNop()
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
	}

	st, nc, cleanup, err := openStore(ctx, cfg, collector, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Store.Lock.Enabled {
		lockCtx, release, err := claimWriterLock(ctx, cfg.Store.Lock, nc, logger)
		if err != nil {
			return err
		}
		defer release()
		ctx = lockCtx
	}

	client, err := opensky.NewClient(cfg.OpenSky, opensky.WithLogger(logger.With("component", "opensky")))
	if err != nil {
		return fmt.Errorf("failed to create state-vector client: %w", err)
	}

	opts := []skycarbon.Option{
		skycarbon.WithLogger(logger),
		skycarbon.WithMetrics(collector),
		skycarbon.WithAirspaceSource(airspaceSource(cfg, st)),
	}

	if cfg.API.Enabled {
		apiOpts := []api.Option{api.WithLogger(logger.With("component", "api"))}
		if reg != nil {
			apiOpts = append(apiOpts, api.WithGatherer(reg))
		}
		if watcher, ok := st.(api.TotalsWatcher); ok {
			apiOpts = append(apiOpts, api.WithTotalsWatcher(watcher))
		}
		opts = append(opts, skycarbon.WithReadAPI(api.New(cfg.API.Config, st, apiOpts...)))
		logger.Info("read API enabled", "addr", cfg.API.Addr)
	}

	svc, err := skycarbon.NewService(&cfg.Service, st, client, emission.NewFactory(cfg.Emission), opts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return svc.Run(ctx)
}

// openStore builds the configured store. The returned cleanup closes the
// NATS connection and embedded server, if any. The connection is nil for the
// memory store.
func openStore(ctx context.Context, cfg *config.Config, collector types.StoreMetrics, logger types.Logger) (types.Store, *nats.Conn, func(), error) {
	if cfg.Store.Mode == config.StoreModeMemory {
		logger.Warn("using in-memory store, totals are lost on restart")
		return store.NewMemory(), nil, func() {}, nil
	}

	nc, ns, err := connectNATS(cfg.NATS, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		nc.Close()
		if ns != nil {
			ns.Shutdown()
			ns.WaitForShutdown()
		}
	}

	bucketCtx, cancel := context.WithTimeout(ctx, cfg.Service.StartupTimeout)
	defer cancel()

	kvCfg := cfg.Store.KV
	kvCfg.Metrics = collector
	st, err := store.NewKV(bucketCtx, nc, kvCfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to open KV store: %w", err)
	}

	return st, nc, cleanup, nil
}

// claimWriterLock takes the single-writer lease and keeps renewing it. The
// returned context is cancelled when the lease is lost, which stops the
// service. The returned func gives the lease up on exit.
func claimWriterLock(ctx context.Context, cfg config.LockConfig, nc *nats.Conn, logger *logging.SlogLogger) (context.Context, func(), error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
		writerlock.BucketConfig(cfg.Bucket, cfg.TTL, jetstream.FileStorage), 3)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lock bucket: %w", err)
	}

	hostname, _ := os.Hostname()
	lock := writerlock.New(kv, "writer", fmt.Sprintf("%s/%s", hostname, uuid.NewString()))
	lock.SetLogger(logger.With("component", "writerlock"))

	held, err := lock.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	if !held {
		holder, _ := lock.Holder(ctx)
		return nil, nil, fmt.Errorf("%w: %s", writerlock.ErrHeldElsewhere, holder)
	}
	logger.Info("writer lock acquired", "owner", lock.Owner(), "ttl", cfg.TTL)

	lockCtx, cancel := context.WithCancel(ctx)
	lost := lock.KeepAlive(lockCtx, cfg.RenewInterval)
	go func() {
		if err := <-lost; err != nil {
			logger.Error("stopping service, another instance may take over", "error", err)
			cancel()
		}
	}()

	release := func() {
		cancel()

		releaseCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()

		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, writerlock.ErrNotHeld) {
			logger.Warn("failed to release writer lock", "error", err)
		}
	}

	return lockCtx, release, nil
}

// connectNATS dials an external server or starts an embedded one.
func connectNATS(cfg config.NATSConfig, logger types.Logger) (*nats.Conn, *server.Server, error) {
	url := cfg.URL

	var ns *server.Server
	if cfg.Mode == config.NATSModeEmbedded {
		var err error
		ns, err = natsutil.StartEmbedded(cfg.Embedded)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded NATS: %w", err)
		}
		url = ns.ClientURL()
		logger.Info("embedded NATS started", "url", url, "store_dir", cfg.Embedded.StoreDir)
	}

	nc, err := nats.Connect(url,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		if ns != nil {
			ns.Shutdown()
		}
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return nc, ns, nil
}

// airspaceSource picks the static set or the stored registry.
func airspaceSource(cfg *config.Config, reader types.StoreReader) types.AirspaceSource {
	if cfg.Airspaces.Source == config.SourceRegistry {
		return source.NewRegistry(reader)
	}

	return source.NewStatic(cfg.StaticAirspaces())
}
