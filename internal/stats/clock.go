package stats

import "time"

// Clock provides the current time. Calendar days are taken in the location
// of the returned time.
type Clock interface {
	Now() time.Time
}

// SystemClock provides actual local time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a settable clock for tests and simulations.
type ManualClock struct {
	CurrentTime time.Time
}

// Now returns the manual time.
func (c *ManualClock) Now() time.Time {
	return c.CurrentTime
}

// AddDays moves the clock by n calendar days.
func (c *ManualClock) AddDays(n int) {
	c.CurrentTime = c.CurrentTime.AddDate(0, 0, n)
}
