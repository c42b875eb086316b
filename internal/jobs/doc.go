// Package jobs builds the two recurring per-airspace jobs: the emission
// update, which folds a new CO2 delta into the airspace total, and the hourly
// snapshot, which appends the current total to the airspace's history.
//
// Both jobs close over one immutable types.JobContext and run on the
// airspace's lane, so they never overlap and the total is single-writer.
package jobs
