// Package writerlock guards a shared store against concurrent writers.
//
// Two daemons accumulating into the same totals would each add their own
// delta every cycle and double-count. Before starting, skycarbond claims a
// lease key in a TTL bucket; only the holder runs lanes. The lease is renewed
// well inside the TTL, so a crashed holder frees it automatically.
//
// # Usage
//
//	kv, _ := kvutil.EnsureKVBucketWithRetry(ctx, js,
//	    writerlock.BucketConfig("skycarbon-lock", 30*time.Second, jetstream.FileStorage), 3)
//
//	lock := writerlock.New(kv, "writer", ownerID)
//	held, err := lock.Acquire(ctx)
//	if err != nil || !held {
//	    return writerlock.ErrHeldElsewhere
//	}
//	defer lock.Release(context.Background())
//
//	lost := lock.KeepAlive(ctx, 10*time.Second)
//	select {
//	case err := <-lost:
//	    // Another writer may now run; stop ours.
//	case <-ctx.Done():
//	}
//
// # Atomicity
//
//   - Create claims the key only if it does not exist
//   - Update with the last seen revision renews only our own claim
//   - Delete releases early so a successor does not wait for the TTL
package writerlock
