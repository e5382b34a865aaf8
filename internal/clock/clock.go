// Package clock provides an injectable wall clock.
//
// Production code receives Real(). Tests use Fake, whose readings are
// fully determined by the test, so timestamps in stored documents and
// golden traces are reproducible.
package clock

import (
	"sync"
	"time"
)

// Clock reads the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns a Clock backed by time.Now.
func Real() Clock {
	return realClock{}
}

// FakeClock is a deterministic Clock for tests.
//
// Every call to Now returns the current reading and then advances it by
// the configured step, so consecutive readings are distinct and
// monotonic. A zero step freezes the clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu      sync.Mutex
	initial time.Time
	current time.Time
	step    time.Duration
}

// Fake creates a FakeClock starting at initial that advances by step on
// every reading.
func Fake(initial time.Time, step time.Duration) *FakeClock {
	return &FakeClock{initial: initial, current: initial, step: step}
}

// Now returns the current reading and advances the clock by one step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Peek returns the next reading without advancing.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Reset rewinds the clock to its initial reading.
//
// Used for test reuse: the same scenario run twice sees identical times.
func (c *FakeClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.initial
}
