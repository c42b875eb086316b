// Package api serves the accumulated emission data over HTTP.
//
// The server is handed a types.StoreReader, never the writable store, so it
// cannot mutate totals or snapshot sequences. It has its own lifecycle
// (Start/Stop) independent of the lanes: a failing or slow API never touches
// lane state.
//
// Routes:
//
//	GET /health                  store liveness and last heartbeat
//	GET /startup                 service startup time
//	GET /airspaces               airspace registry
//	GET /totals                  every registered airspace's total
//	GET /airspaces/{id}/total    one airspace's total
//	GET /airspaces/{id}/hourly   one airspace's snapshot history
//	GET /metrics                 Prometheus exposition
//	GET /ws/totals               websocket stream of total writes (WithTotalsWatcher)
//
// JSON responses carry a strong ETag (xxh3 of the body); a matching
// If-None-Match yields 304 Not Modified.
package api
