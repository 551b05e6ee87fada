package mocks

import (
	"sync"
	"time"

	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. Timers created
// with After fire when Advance or Set moves the clock past their deadline,
// never from wall time.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*mockTimer
}

type mockTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that fires when the clock advances past d from now
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.timers = append(c.timers, &mockTimer{deadline: c.current.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = t

	remaining := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.deadline.After(c.current) {
			timer.ch <- c.current
			continue
		}
		remaining = append(remaining, timer)
	}
	c.timers = remaining
}

// PendingTimers returns the number of timers waiting to fire; tests use it
// to synchronize with a goroutine that is about to block on After
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
