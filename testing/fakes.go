package testing

import (
	"context"
	"sync"
	"time"

	"github.com/skycarbon/skycarbon/types"
)

// ManualClock is a types.Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ types.Clock = (*ManualClock)(nil)

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the frozen time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// FetchResult is one scripted reply of FakeFetcher.
type FetchResult struct {
	Response *types.StatesResponse
	Err      error
}

// FakeFetcher replays scripted FetchStates results in order. Once the script
// is exhausted it returns a response with nil states.
type FakeFetcher struct {
	mu     sync.Mutex
	script []FetchResult
	calls  []types.BoundingBox
	creds  []types.Credentials
}

var _ types.StateFetcher = (*FakeFetcher)(nil)

// NewFakeFetcher creates a fetcher replaying results in order.
func NewFakeFetcher(results ...FetchResult) *FakeFetcher {
	return &FakeFetcher{script: results}
}

// Push appends further scripted results.
func (f *FakeFetcher) Push(results ...FetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.script = append(f.script, results...)
}

// FetchStates returns the next scripted result.
func (f *FakeFetcher) FetchStates(_ context.Context, creds types.Credentials, box types.BoundingBox) (*types.StatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, box)
	f.creds = append(f.creds, creds)

	if len(f.script) == 0 {
		return &types.StatesResponse{Time: time.Now()}, nil
	}
	next := f.script[0]
	f.script = f.script[1:]

	return next.Response, next.Err
}

// Calls returns the bounding boxes FetchStates was called with.
func (f *FakeFetcher) Calls() []types.BoundingBox {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.BoundingBox, len(f.calls))
	copy(out, f.calls)

	return out
}

// CredentialsSeen returns the credentials FetchStates was called with.
func (f *FakeFetcher) CredentialsSeen() []types.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.Credentials, len(f.creds))
	copy(out, f.creds)

	return out
}

// StatesAt builds a response holding n airborne placeholder aircraft.
func StatesAt(t time.Time, n int) *types.StatesResponse {
	states := make([]types.StateVector, n)
	for i := range states {
		states[i] = types.StateVector{ICAO24: string(rune('a' + i%26)), LastContact: t.Unix()}
	}

	return &types.StatesResponse{Time: t, States: states}
}

// FakeEmission returns scripted deltas in order, then zero.
type FakeEmission struct {
	mu     sync.Mutex
	deltas []float64
	err    error
	calls  int
}

var _ types.EmissionComputer = (*FakeEmission)(nil)

// NewFakeEmission creates a computer returning deltas in order.
func NewFakeEmission(deltas ...float64) *FakeEmission {
	return &FakeEmission{deltas: deltas}
}

// FailWith makes every following call return err.
func (e *FakeEmission) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.err = err
}

// ComputeEmission returns the next scripted delta.
func (e *FakeEmission) ComputeEmission(_ context.Context, _ []types.StateVector, _ time.Time) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	if e.err != nil {
		return 0, e.err
	}
	if len(e.deltas) == 0 {
		return 0, nil
	}
	d := e.deltas[0]
	e.deltas = e.deltas[1:]

	return d, nil
}

// Calls returns how many times ComputeEmission ran.
func (e *FakeEmission) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.calls
}

// EmissionFactory returns a factory handing out the given computer per
// airspace name; unknown airspaces get a zero-delta computer.
func EmissionFactory(byAirspace map[string]types.EmissionComputer) types.EmissionModelFactory {
	return func(a types.Airspace) types.EmissionComputer {
		if c, ok := byAirspace[a.Name]; ok {
			return c
		}

		return NewFakeEmission()
	}
}
