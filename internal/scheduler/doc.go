// Package scheduler fires recurring triggers onto lanes.
//
// A trigger pairs a cadence with a job factory and a target Submitter. The
// tick loop only decides whether a trigger is due and hands a freshly built
// job to the target; it never runs job work inline and never blocks on I/O,
// so a slow job cannot delay the detection of other due triggers.
//
// Drift policy: after a firing the due time advances from the previous due
// time, not from the time of the tick, so tick latency does not accumulate.
// When the loop stalled for longer than one period the trigger fires once and
// its due time moves to the first slot after now; the skipped periods are
// logged and counted.
package scheduler
