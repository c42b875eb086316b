// Package heartbeat publishes the service's liveness timestamp into the store.
//
// The read API reports the last heartbeat on /health, so a consumer can tell a
// live service from one that stopped updating without ever talking to it.
//
// # Publisher Lifecycle
//
//  1. Create publisher with New(store, interval)
//  2. Optionally SetMetrics / SetLogger / SetClock
//  3. Start publishing with Start(ctx); the first heartbeat is written at once
//  4. Stop publishing with Stop()
//
// Example:
//
//	publisher := heartbeat.New(st, 10*time.Second)
//	publisher.SetLogger(logger)
//	if err := publisher.Start(ctx); err != nil {
//	    return err
//	}
//	defer publisher.Stop()
//
// # Failure Handling
//
// A failed write is logged and counted (RecordHeartbeat(false)) and retried on
// the next tick. Heartbeat failures never stop the service.
//
// # Thread Safety
//
// All Publisher methods are safe for concurrent use.
package heartbeat
