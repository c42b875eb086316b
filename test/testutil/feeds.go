package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skycarbon/skycarbon"
)

// SteadyFeed reports the same n airborne aircraft in every box on each call.
// Positions drift a little per call so the feed looks alive.
type SteadyFeed struct {
	Aircraft int
	Velocity float64 // m/s
	Category int

	calls atomic.Int64
}

// NewSteadyFeed creates a feed with n large aircraft at 230 m/s.
func NewSteadyFeed(n int) *SteadyFeed {
	return &SteadyFeed{Aircraft: n, Velocity: 230, Category: 4}
}

// FetchStates implements skycarbon.StateFetcher.
func (f *SteadyFeed) FetchStates(_ context.Context, _ skycarbon.Credentials, box skycarbon.BoundingBox) (*skycarbon.StatesResponse, error) {
	call := f.calls.Add(1)
	now := time.Now()

	states := make([]skycarbon.StateVector, f.Aircraft)
	for i := range states {
		frac := float64((int(call)+i)%10) / 10
		lat := box.MinLat + frac*(box.MaxLat-box.MinLat)
		lon := box.MinLon + frac*(box.MaxLon-box.MinLon)
		velocity := f.Velocity
		states[i] = skycarbon.StateVector{
			ICAO24:      fmt.Sprintf("%06x", i),
			LastContact: now.Unix(),
			Latitude:    &lat,
			Longitude:   &lon,
			Velocity:    &velocity,
			Category:    f.Category,
		}
	}

	return &skycarbon.StatesResponse{Time: now, States: states}, nil
}

// Calls returns how many times FetchStates ran.
func (f *SteadyFeed) Calls() int64 {
	return f.calls.Load()
}

// ShapedFeed wraps a feed and slows down or fails selected boxes.
type ShapedFeed struct {
	Inner skycarbon.StateFetcher

	mu     sync.Mutex
	delays map[skycarbon.BoundingBox]time.Duration
	errs   map[skycarbon.BoundingBox]error
	calls  map[skycarbon.BoundingBox]int
}

// NewShapedFeed wraps inner with no shaping.
func NewShapedFeed(inner skycarbon.StateFetcher) *ShapedFeed {
	return &ShapedFeed{
		Inner:  inner,
		delays: make(map[skycarbon.BoundingBox]time.Duration),
		errs:   make(map[skycarbon.BoundingBox]error),
		calls:  make(map[skycarbon.BoundingBox]int),
	}
}

// Delay makes every fetch for box take at least d (or until ctx is done).
func (f *ShapedFeed) Delay(box skycarbon.BoundingBox, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delays[box] = d
}

// Fail makes every fetch for box return err. A nil err clears it.
func (f *ShapedFeed) Fail(box skycarbon.BoundingBox, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		delete(f.errs, box)
		return
	}
	f.errs[box] = err
}

// Calls returns how many fetches were made for box.
func (f *ShapedFeed) Calls(box skycarbon.BoundingBox) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[box]
}

// FetchStates implements skycarbon.StateFetcher.
func (f *ShapedFeed) FetchStates(ctx context.Context, creds skycarbon.Credentials, box skycarbon.BoundingBox) (*skycarbon.StatesResponse, error) {
	f.mu.Lock()
	f.calls[box]++
	delay := f.delays[box]
	err := f.errs[box]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	return f.Inner.FetchStates(ctx, creds, box)
}
