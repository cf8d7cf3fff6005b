package channel

import "time"

// Clock returns the current simulation time as an offset from the start of
// the scenario.
type Clock interface {
	Now() time.Duration
}

// ManualClock is a Clock driven explicitly by its owner, typically a
// discrete-event loop stepping through the scenario.
type ManualClock struct {
	now time.Duration
}

func (c *ManualClock) Now() time.Duration {
	return c.now
}

func (c *ManualClock) Set(t time.Duration) {
	c.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Duration {
	c.now += d
	return c.now
}
