package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
	// After returns a channel that fires once the given duration has
	// elapsed, like time.After
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// After returns a channel that fires after the given duration
func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
