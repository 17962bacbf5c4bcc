package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for the device simulators. Drivers depend on this
// interface rather than the time package directly so that conversion timing
// and receive timeouts can be tested without real waiting.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for the duration d or until the context is cancelled,
	// whichever comes first. It returns the context error on cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real returns a Clock backed by the wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockClock is a manually driven Clock for tests. Sleep advances the
// simulated time immediately instead of blocking, so polling loops inside
// blocking driver operations run to completion without real delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock constructs a MockClock positioned at start.
func NewMock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the current simulated time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the simulated time forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleep advances the simulated time by d and returns immediately. A
// cancelled context still wins, matching the real clock's contract.
func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.Advance(d)
	}
	return nil
}
