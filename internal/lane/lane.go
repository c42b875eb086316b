package lane

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/types"
)

// Job results reported to metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultPanic   = "panic"
)

// Config holds the optional dependencies of a Lane.
type Config struct {
	// JobTimeout bounds a single job through its context. Zero means no deadline.
	JobTimeout time.Duration

	// Logger receives job failures. Defaults to a no-op logger.
	Logger types.Logger

	// Metrics receives queue depth and job outcomes. Defaults to no-op.
	Metrics types.LaneMetrics

	// OnJobFailed is called on the lane goroutine after a job failed.
	OnJobFailed func(ctx context.Context, airspace, job string, err error) error
}

// item is a queue entry; stop marks the poison pill.
type item struct {
	job  types.Job
	stop bool
}

// Lane executes jobs for one airspace strictly in submission order.
//
// Thread Safety:
//   - Submit, Pending and Stop are safe for concurrent use
//   - Jobs themselves never run concurrently with each other
type Lane struct {
	airspace string
	cfg      Config

	mu       sync.Mutex
	queue    []item
	started  bool
	stopping bool

	notify chan struct{}
	doneCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	processed atomic.Uint64
	failed    atomic.Uint64
}

// New creates a lane bound to one airspace. The lane accepts submissions
// immediately; nothing runs until Start.
//
// Parameters:
//   - airspace: Airspace name, used as a log and metrics label
//   - cfg: Optional dependencies and job timeout
//
// Returns:
//   - *Lane: New, not yet started lane
func New(airspace string, cfg Config) *Lane {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Lane{
		airspace: airspace,
		cfg:      cfg,
		notify:   make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Airspace returns the airspace this lane serves.
func (l *Lane) Airspace() string {
	return l.airspace
}

// Start launches the lane goroutine.
//
// Returns:
//   - error: ErrLaneAlreadyStarted on a second call, ErrLaneStopped after Stop
func (l *Lane) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopping {
		return types.ErrLaneStopped
	}
	if l.started {
		return types.ErrLaneAlreadyStarted
	}
	l.started = true

	go l.loop()

	return nil
}

// Submit enqueues a job. It never blocks and never drops a job.
//
// Returns:
//   - error: ErrLaneStopped once Stop has been requested
func (l *Lane) Submit(job types.Job) error {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrLaneStopped, l.airspace)
	}
	l.queue = append(l.queue, item{job: job})
	depth := len(l.queue)
	l.mu.Unlock()

	l.cfg.Metrics.RecordQueueDepth(l.airspace, depth)
	l.wake()

	return nil
}

// Pending returns the number of jobs waiting to run (excluding the running one).
func (l *Lane) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.queue)
	if n > 0 && l.queue[n-1].stop {
		n--
	}

	return n
}

// Processed returns how many jobs have finished, successfully or not.
func (l *Lane) Processed() uint64 {
	return l.processed.Load()
}

// Failed returns how many jobs returned an error or panicked.
func (l *Lane) Failed() uint64 {
	return l.failed.Load()
}

// Stop enqueues a poison pill and waits for the lane to drain every job
// submitted before it. Further submissions fail with ErrLaneStopped.
//
// If ctx expires first, the context of the running job and of every job still
// queued is cancelled and ctx.Err() is returned; the goroutine still exits
// once it reaches the pill.
//
// Safe to call multiple times.
func (l *Lane) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.started {
		// No goroutine will ever close doneCh; close it here, once.
		if !l.stopping {
			l.stopping = true
			l.queue = nil
			close(l.doneCh)
		}
		l.mu.Unlock()
		l.cancel()

		return nil
	}
	if !l.stopping {
		l.stopping = true
		l.queue = append(l.queue, item{stop: true})
	}
	l.mu.Unlock()

	l.wake()

	select {
	case <-l.doneCh:
		l.cancel()
		return nil
	case <-ctx.Done():
		l.cancel()
		return fmt.Errorf("lane %s did not drain: %w", l.airspace, ctx.Err())
	}
}

// Done is closed when the lane goroutine exits, or by Stop on a lane that was
// never started.
func (l *Lane) Done() <-chan struct{} {
	return l.doneCh
}

func (l *Lane) wake() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *Lane) pop() (item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return item{}, false
	}
	next := l.queue[0]
	l.queue[0] = item{}
	l.queue = l.queue[1:]
	depth := len(l.queue)

	l.cfg.Metrics.RecordQueueDepth(l.airspace, depth)

	return next, true
}

func (l *Lane) loop() {
	defer close(l.doneCh)

	for {
		next, ok := l.pop()
		if !ok {
			<-l.notify
			continue
		}
		if next.stop {
			return
		}
		l.run(next.job)
	}
}

func (l *Lane) run(job types.Job) {
	ctx := l.ctx
	if l.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := execute(ctx, job)
	l.cfg.Metrics.RecordJobDuration(l.airspace, job.Name, time.Since(start).Seconds())
	l.processed.Add(1)

	if err == nil {
		l.cfg.Metrics.RecordJobResult(l.airspace, job.Name, ResultSuccess)
		return
	}

	l.failed.Add(1)
	result := ResultFailure
	if isPanic(err) {
		result = ResultPanic
	}
	l.cfg.Metrics.RecordJobResult(l.airspace, job.Name, result)
	l.cfg.Logger.Error("job failed",
		"airspace", l.airspace,
		"job", job.Name,
		"job_id", job.ID,
		"error", err,
	)

	if l.cfg.OnJobFailed != nil {
		hook := func(ctx context.Context) error {
			return l.cfg.OnJobFailed(ctx, l.airspace, job.Name, err)
		}
		if hookErr := execute(l.ctx, types.Job{Name: "on-job-failed", Fn: hook}); hookErr != nil {
			l.cfg.Logger.Warn("OnJobFailed hook error", "airspace", l.airspace, "error", hookErr)
		}
	}
}
