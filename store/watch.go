package store

import (
	"context"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// TotalUpdate is one observed write to an airspace total.
type TotalUpdate struct {
	Airspace string
	Total    float64
	Revision uint64
	Time     time.Time
}

// WatchTotals streams every total written after the call.
//
// Values already in the bucket are not replayed. The channel is closed when
// ctx is cancelled or the underlying watcher stops. Entries that cannot be
// decoded are skipped.
//
// Parameters:
//   - ctx: Lifetime of the watch
//
// Returns:
//   - <-chan TotalUpdate: Updates in bucket order
//   - error: ErrStoreUnavailable (wrapped) if the watch cannot be created
//
// Example:
//
//	updates, err := st.WatchTotals(ctx)
//	for u := range updates {
//	    fmt.Printf("%s: %.1f kg\n", u.Airspace, u.Total)
//	}
func (s *KV) WatchTotals(ctx context.Context) (<-chan TotalUpdate, error) {
	watcher, err := s.totals.WatchAll(ctx, jetstream.UpdatesOnly())
	if err != nil {
		return nil, wrapErr("watch totals", err)
	}

	out := make(chan TotalUpdate, 16)

	go func() {
		defer close(out)
		defer func() { _ = watcher.Stop() }()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil || entry.Operation() != jetstream.KeyValuePut {
					continue
				}

				total, err := strconv.ParseFloat(string(entry.Value()), 64)
				if err != nil {
					continue
				}

				update := TotalUpdate{
					Airspace: entry.Key(),
					Total:    total,
					Revision: entry.Revision(),
					Time:     entry.Created(),
				}

				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
