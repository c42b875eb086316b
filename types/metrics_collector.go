package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	ServiceMetrics
	LaneMetrics
	SchedulerMetrics
	StoreMetrics
	EmissionMetrics
}

// ServiceMetrics defines metrics for service-level operations.
type ServiceMetrics interface {
	// RecordStateTransition records a service state transition event.
	RecordStateTransition(from, to State, duration float64)

	// RecordActiveLanes sets the number of running lanes (gauge metric).
	RecordActiveLanes(count int)

	// RecordHeartbeat records a service heartbeat publish attempt.
	RecordHeartbeat(success bool)
}

// LaneMetrics defines metrics for per-airspace lanes.
type LaneMetrics interface {
	// RecordJobDuration records how long a job ran.
	//
	// Parameters:
	//   - airspace: Lane the job ran on
	//   - job: Job name ("emission-update", "hourly-snapshot")
	//   - duration: Time taken in seconds
	RecordJobDuration(airspace, job string, duration float64)

	// RecordJobResult records a job outcome.
	//
	// Parameters:
	//   - airspace: Lane the job ran on
	//   - job: Job name
	//   - result: "success", "failure" or "panic"
	RecordJobResult(airspace, job, result string)

	// RecordQueueDepth sets the number of jobs waiting on a lane (gauge metric).
	RecordQueueDepth(airspace string, depth int)
}

// SchedulerMetrics defines metrics for the trigger registry and tick loop.
type SchedulerMetrics interface {
	// RecordTriggerFired records a trigger handing a job to its lane.
	RecordTriggerFired(tag string)

	// RecordTriggerSubmitFailed records a lane refusing a job.
	RecordTriggerSubmitFailed(tag string)

	// RecordTriggerCoalesced records periods skipped because the tick loop stalled.
	RecordTriggerCoalesced(tag string, periods int)
}

// StoreMetrics defines metrics for the key/value store.
type StoreMetrics interface {
	// RecordKVOperationDuration records store operation latency.
	//
	// Parameters:
	//   - operation: Operation type ("get", "put", "update", "status")
	//   - duration: Time taken in seconds
	RecordKVOperationDuration(operation string, duration float64)
}

// EmissionMetrics defines metrics for emission accounting.
type EmissionMetrics interface {
	// RecordEmissionDelta records a delta applied to an airspace total.
	RecordEmissionDelta(airspace string, delta float64)

	// RecordTotalCarbon sets the current cumulative total (gauge metric).
	RecordTotalCarbon(airspace string, total float64)

	// RecordFetchResult records a state fetch outcome ("data", "empty", "error").
	RecordFetchResult(airspace, result string)
}
