package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skycarbon/skycarbon/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use so constructing
// a PrometheusCollector never panics on duplicate registration.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions *prometheus.HistogramVec
	activeLanes      prometheus.Gauge
	heartbeats       *prometheus.CounterVec

	jobDuration *prometheus.HistogramVec
	jobResults  *prometheus.CounterVec
	queueDepth  *prometheus.GaugeVec

	triggersFired     *prometheus.CounterVec
	triggerSubmitFail *prometheus.CounterVec
	triggerCoalesced  *prometheus.CounterVec

	kvLatency *prometheus.HistogramVec

	emissionDelta *prometheus.CounterVec
	totalCarbon   *prometheus.GaugeVec
	fetchResults  *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "skycarbon" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "skycarbon"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "service",
			Name:      "state_transition_seconds",
			Help:      "Time spent in a service state before transitioning, by target state.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 300},
		}, []string{"from", "to"})

		p.activeLanes = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "service",
			Name:      "active_lanes",
			Help:      "Number of running airspace lanes.",
		})

		p.heartbeats = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "service",
			Name:      "heartbeats_total",
			Help:      "Service heartbeat publish attempts by result (success,failure).",
		}, []string{"result"})

		p.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "lane",
			Name:      "job_duration_seconds",
			Help:      "Duration of lane jobs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		}, []string{"airspace", "job"})

		p.jobResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lane",
			Name:      "job_results_total",
			Help:      "Lane job outcomes (success,failure,panic).",
		}, []string{"airspace", "job", "result"})

		p.queueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "lane",
			Name:      "queue_depth",
			Help:      "Jobs waiting on a lane.",
		}, []string{"airspace"})

		p.triggersFired = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "triggers_fired_total",
			Help:      "Trigger firings handed to a lane, by tag.",
		}, []string{"tag"})

		p.triggerSubmitFail = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "trigger_submit_failures_total",
			Help:      "Trigger firings refused by a stopped lane, by tag.",
		}, []string{"tag"})

		p.triggerCoalesced = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "coalesced_periods_total",
			Help:      "Periods folded into a single firing because the tick loop stalled, by tag.",
		}, []string{"tag"})

		p.kvLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of key/value store operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"op"})

		p.emissionDelta = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "emission",
			Name:      "co2_kg_total",
			Help:      "CO2 (kg) attributed to an airspace since process start.",
		}, []string{"airspace"})

		p.totalCarbon = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "emission",
			Name:      "cumulative_co2_kg",
			Help:      "Cumulative CO2 (kg) stored for an airspace.",
		}, []string{"airspace"})

		p.fetchResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "emission",
			Name:      "fetch_results_total",
			Help:      "State-vector fetch outcomes (data,empty,error).",
		}, []string{"airspace", "result"})

		p.reg.MustRegister(
			p.stateTransitions,
			p.activeLanes,
			p.heartbeats,
			p.jobDuration,
			p.jobResults,
			p.queueDepth,
			p.triggersFired,
			p.triggerSubmitFail,
			p.triggerCoalesced,
			p.kvLatency,
			p.emissionDelta,
			p.totalCarbon,
			p.fetchResults,
		)
	})
}

// ServiceMetrics implementation

// RecordStateTransition observes the time spent in the previous state.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State, duration float64) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Observe(duration)
}

// RecordActiveLanes sets the running lane gauge.
func (p *PrometheusCollector) RecordActiveLanes(count int) {
	p.ensureRegistered()
	p.activeLanes.Set(float64(count))
}

// RecordHeartbeat counts heartbeat publish attempts.
func (p *PrometheusCollector) RecordHeartbeat(success bool) {
	p.ensureRegistered()
	p.heartbeats.WithLabelValues(resultLabel(success)).Inc()
}

// LaneMetrics implementation

// RecordJobDuration observes job latency.
func (p *PrometheusCollector) RecordJobDuration(airspace, job string, duration float64) {
	p.ensureRegistered()
	p.jobDuration.WithLabelValues(airspace, job).Observe(duration)
}

// RecordJobResult counts job outcomes.
func (p *PrometheusCollector) RecordJobResult(airspace, job, result string) {
	p.ensureRegistered()
	p.jobResults.WithLabelValues(airspace, job, result).Inc()
}

// RecordQueueDepth sets the queue depth gauge.
func (p *PrometheusCollector) RecordQueueDepth(airspace string, depth int) {
	p.ensureRegistered()
	p.queueDepth.WithLabelValues(airspace).Set(float64(depth))
}

// SchedulerMetrics implementation

// RecordTriggerFired counts trigger firings.
func (p *PrometheusCollector) RecordTriggerFired(tag string) {
	p.ensureRegistered()
	p.triggersFired.WithLabelValues(tag).Inc()
}

// RecordTriggerSubmitFailed counts refused submissions.
func (p *PrometheusCollector) RecordTriggerSubmitFailed(tag string) {
	p.ensureRegistered()
	p.triggerSubmitFail.WithLabelValues(tag).Inc()
}

// RecordTriggerCoalesced counts skipped periods.
func (p *PrometheusCollector) RecordTriggerCoalesced(tag string, periods int) {
	p.ensureRegistered()
	p.triggerCoalesced.WithLabelValues(tag).Add(float64(periods))
}

// StoreMetrics implementation

// RecordKVOperationDuration observes store latency.
func (p *PrometheusCollector) RecordKVOperationDuration(operation string, duration float64) {
	p.ensureRegistered()
	p.kvLatency.WithLabelValues(operation).Observe(duration)
}

// EmissionMetrics implementation

// RecordEmissionDelta adds a delta to the per-airspace counter.
func (p *PrometheusCollector) RecordEmissionDelta(airspace string, delta float64) {
	p.ensureRegistered()
	if delta > 0 {
		p.emissionDelta.WithLabelValues(airspace).Add(delta)
	}
}

// RecordTotalCarbon sets the cumulative total gauge.
func (p *PrometheusCollector) RecordTotalCarbon(airspace string, total float64) {
	p.ensureRegistered()
	p.totalCarbon.WithLabelValues(airspace).Set(total)
}

// RecordFetchResult counts fetch outcomes.
func (p *PrometheusCollector) RecordFetchResult(airspace, result string) {
	p.ensureRegistered()
	p.fetchResults.WithLabelValues(airspace, result).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
