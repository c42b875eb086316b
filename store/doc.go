// Package store implements the types.Store contract.
//
// KV keeps all data in three NATS JetStream KeyValue buckets and is what the
// daemon runs on. Memory keeps everything in process and is used by tests and
// by the "memory" store mode.
//
// Layout of the KV buckets:
//
//	totals:  <airspace>       -> decimal float
//	hourly:  <airspace>       -> JSON [{"time": unix, "co2": value}, ...]
//	meta:    airspaces        -> JSON {"<name>": {"minLat": ...}, ...}
//	         startup          -> unix milliseconds
//	         heartbeat        -> unix milliseconds
package store
