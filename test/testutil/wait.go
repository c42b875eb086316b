package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon"
)

// WaitForTotal blocks until the airspace total satisfies cond or timeout.
//
// Returns:
//   - float64: The total that satisfied cond
func WaitForTotal(t *testing.T, reader skycarbon.StoreReader, airspace string, timeout time.Duration, cond func(float64) bool) float64 {
	t.Helper()

	var last float64
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		total, err := reader.GetTotalCarbon(ctx, airspace)
		if err != nil {
			return false
		}
		last = total

		return cond(total)
	}, timeout, 20*time.Millisecond, "total for %s never satisfied condition (last %v)", airspace, last)

	return last
}

// Above returns a condition matching totals strictly greater than v.
func Above(v float64) func(float64) bool {
	return func(total float64) bool { return total > v }
}
