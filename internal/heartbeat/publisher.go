package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/types"
)

// Common errors for heartbeat operations.
var (
	ErrNotStarted     = errors.New("publisher not started")
	ErrAlreadyStarted = errors.New("publisher already started")
	ErrStopped        = errors.New("publisher stopped")
)

// publishTimeout bounds one heartbeat write.
const publishTimeout = 5 * time.Second

// Writer is the slice of the store the publisher needs.
type Writer interface {
	SetHeartbeat(ctx context.Context, t time.Time) error
}

// Publisher writes a liveness timestamp every interval.
type Publisher struct {
	writer   Writer
	interval time.Duration
	metrics  types.ServiceMetrics
	logger   types.Logger
	clock    types.Clock

	mu      sync.Mutex
	started bool
	stopped bool
	last    time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a heartbeat publisher.
//
// Parameters:
//   - writer: Destination of heartbeats, usually the store
//   - interval: Time between heartbeats
//
// Returns:
//   - *Publisher: New, not yet started publisher
func New(writer Writer, interval time.Duration) *Publisher {
	return &Publisher{
		writer:   writer,
		interval: interval,
		logger:   logging.NewNop(),
		clock:    types.SystemClock{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// SetMetrics sets the metrics collector. Optional.
func (p *Publisher) SetMetrics(metrics types.ServiceMetrics) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics = metrics
}

// SetLogger sets the logger used for failed writes. Optional.
func (p *Publisher) SetLogger(logger types.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if logger != nil {
		p.logger = logger
	}
}

// SetClock sets the clock used to stamp heartbeats. Optional.
func (p *Publisher) SetClock(clock types.Clock) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if clock != nil {
		p.clock = clock
	}
}

// Start publishes the first heartbeat immediately, then one per interval
// until Stop. A failed first write is logged, not returned.
//
// Returns:
//   - error: ErrAlreadyStarted if running, ErrStopped after Stop
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	p.publish(ctx)

	go p.publishLoop()

	return nil
}

// Stop ends the publishing loop and waits for it to exit.
//
// Returns:
//   - error: ErrNotStarted if not running
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	p.started = false
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()

	<-p.doneCh

	return nil
}

// IsStarted returns whether the publisher is running.
func (p *Publisher) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.started
}

// LastPublished returns the time of the last successful heartbeat.
func (p *Publisher) LastPublished() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.last
}

func (p *Publisher) publishLoop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			p.publish(ctx)
			cancel()
		}
	}
}

func (p *Publisher) publish(ctx context.Context) {
	p.mu.Lock()
	clock, logger, metrics := p.clock, p.logger, p.metrics
	p.mu.Unlock()

	now := clock.Now().UTC()
	err := p.writer.SetHeartbeat(ctx, now)

	if metrics != nil {
		metrics.RecordHeartbeat(err == nil)
	}
	if err != nil {
		logger.Warn("heartbeat publish failed", "error", err)
		return
	}

	p.mu.Lock()
	p.last = now
	p.mu.Unlock()
}
