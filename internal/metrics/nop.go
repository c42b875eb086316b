// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/skycarbon/skycarbon/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	svc, err := skycarbon.NewService(&cfg, store, fetcher, factory, skycarbon.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ServiceMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State, _ /* duration */ float64) {
}

// RecordActiveLanes discards the active lanes metric.
func (n *NopMetrics) RecordActiveLanes(_ /* count */ int) {}

// RecordHeartbeat discards the heartbeat metric.
func (n *NopMetrics) RecordHeartbeat(_ /* success */ bool) {}

// LaneMetrics implementation

// RecordJobDuration discards the job duration metric.
func (n *NopMetrics) RecordJobDuration(_ /* airspace */, _ /* job */ string, _ /* duration */ float64) {
}

// RecordJobResult discards the job result metric.
func (n *NopMetrics) RecordJobResult(_ /* airspace */, _ /* job */, _ /* result */ string) {}

// RecordQueueDepth discards the queue depth metric.
func (n *NopMetrics) RecordQueueDepth(_ /* airspace */ string, _ /* depth */ int) {}

// SchedulerMetrics implementation

// RecordTriggerFired discards the trigger fired metric.
func (n *NopMetrics) RecordTriggerFired(_ /* tag */ string) {}

// RecordTriggerSubmitFailed discards the submit failure metric.
func (n *NopMetrics) RecordTriggerSubmitFailed(_ /* tag */ string) {}

// RecordTriggerCoalesced discards the coalesced periods metric.
func (n *NopMetrics) RecordTriggerCoalesced(_ /* tag */ string, _ /* periods */ int) {}

// StoreMetrics implementation

// RecordKVOperationDuration discards the KV operation duration metric.
func (n *NopMetrics) RecordKVOperationDuration(_ /* operation */ string, _ /* duration */ float64) {
}

// EmissionMetrics implementation

// RecordEmissionDelta discards the emission delta metric.
func (n *NopMetrics) RecordEmissionDelta(_ /* airspace */ string, _ /* delta */ float64) {}

// RecordTotalCarbon discards the total carbon metric.
func (n *NopMetrics) RecordTotalCarbon(_ /* airspace */ string, _ /* total */ float64) {}

// RecordFetchResult discards the fetch result metric.
func (n *NopMetrics) RecordFetchResult(_ /* airspace */, _ /* result */ string) {}
