// Package lane provides the per-airspace job executor.
//
// A Lane is one goroutine draining one unbounded FIFO queue. Jobs run strictly
// in submission order and one at a time, which gives the at-most-one-in-flight
// guarantee per airspace and makes the airspace's store keys single-writer.
//
// Submission never blocks and never drops: a slow job shows up as a growing
// queue depth, not as lost work. A job that returns an error or panics is
// logged and reported, and the lane moves on to the next job.
//
// Lifecycle:
//
//	l := lane.New("berlin", lane.Config{Logger: logger, JobTimeout: time.Minute})
//	_ = l.Start()
//	_ = l.Submit(types.NewJob("emission-update", fn))
//	_ = l.Stop(ctx) // drains everything submitted before Stop, then exits
package lane
