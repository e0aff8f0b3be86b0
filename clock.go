// Package ftui provides the injectable frame clock.
//
// The loop reads time only through a Clock so tests and the
// deterministic harness can drive it explicitly.
package ftui

import (
	"os"
	"time"
)

// Clock is the loop's time source.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d, or for however the clock models it.
	Sleep(d time.Duration)
}

// systemClock is the wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall-clock time source.
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock is a deterministic clock driven by Advance and Set.
// Sleep advances the clock instead of blocking.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a manual clock at the given origin.
func NewManualClock(origin time.Time) *ManualClock {
	return &ManualClock{now: origin}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	return c.now
}

// Sleep advances the manual time by d without blocking.
func (c *ManualClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// Advance moves the clock forward by dt.
func (c *ManualClock) Advance(dt time.Duration) {
	c.now = c.now.Add(dt)
}

// Set moves the clock to an absolute instant.
func (c *ManualClock) Set(t time.Time) {
	c.now = t
}

// DeterministicMode reports whether all clocks must freeze to the
// injected source (FTUI_DEMO_DETERMINISTIC=1).
func DeterministicMode() bool {
	return os.Getenv("FTUI_DEMO_DETERMINISTIC") == "1"
}
