package types

import "time"

// Clock abstracts wall-clock reads so scheduling can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
