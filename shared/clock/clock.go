// Package clock holds the simulated time that drives every position query.
//
// A Clock never reads the system time: callers feed it wall-clock deltas (in days) and it
// scales them by its rate. Only one goroutine may mutate a Clock; concurrent readers must
// capture a Snapshot under the owner's lock.
package clock

import (
	"errors"
	"fmt"
	"math"
	"time"

	"latency.space/orrery/shared/celestial"
)

// ErrNonFinite is returned by mutators given a NaN or infinite argument.
var ErrNonFinite = errors.New("clock: non-finite argument")

// Snapshot is a consistent read of the clock state.
type Snapshot struct {
	Instant float64 `json:"instant"` // Julian Date
	Rate    float64 `json:"rate"`
	Paused  bool    `json:"paused"`
}

// Time returns the snapshot instant as a UTC calendar time.
func (s Snapshot) Time() time.Time {
	return celestial.JDToTime(s.Instant)
}

// Clock is the simulated-time state. The zero value is a running clock at JD 0 with rate 0;
// use New or NewAt.
type Clock struct {
	instant float64
	// running compensation for the low-order bits lost from instant
	comp   float64
	rate   float64
	paused bool
}

// New returns a running clock at instant with the given rate.
func New(instant, rate float64) (*Clock, error) {
	if !isFinite(instant) {
		return nil, fmt.Errorf("%w: instant %v", ErrNonFinite, instant)
	}
	if !isFinite(rate) {
		return nil, fmt.Errorf("%w: rate %v", ErrNonFinite, rate)
	}
	return &Clock{instant: instant, rate: rate}, nil
}

// NewAt returns a running clock starting at the calendar time t.
func NewAt(t time.Time, rate float64) (*Clock, error) {
	return New(celestial.TimeToJD(t), rate)
}

// Advance moves the clock by delta*rate days. It is a no-op while paused.
func (c *Clock) Advance(delta float64) error {
	if !isFinite(delta) {
		return fmt.Errorf("%w: delta %v", ErrNonFinite, delta)
	}
	if c.paused {
		return nil
	}
	step := delta * c.rate
	if !isFinite(step) {
		return fmt.Errorf("%w: step %v", ErrNonFinite, step)
	}
	c.add(step)
	return nil
}

// add is Neumaier's variant of Kahan summation.
func (c *Clock) add(x float64) {
	sum := c.instant + x
	if math.Abs(c.instant) >= math.Abs(x) {
		c.comp += (c.instant - sum) + x
	} else {
		c.comp += (x - sum) + c.instant
	}
	c.instant = sum
}

// Pause stops Advance from moving the clock. Pausing twice is harmless.
func (c *Clock) Pause() { c.paused = true }

// Resume lets Advance move the clock again.
func (c *Clock) Resume() { c.paused = false }

// SetRate changes the time multiplier used by the next Advance. Zero and negative
// rates are allowed; a negative rate runs time backwards.
func (c *Clock) SetRate(multiplier float64) error {
	if !isFinite(multiplier) {
		return fmt.Errorf("%w: rate %v", ErrNonFinite, multiplier)
	}
	c.rate = multiplier
	return nil
}

// JumpTo sets the instant directly, paused or not.
func (c *Clock) JumpTo(instant float64) error {
	if !isFinite(instant) {
		return fmt.Errorf("%w: instant %v", ErrNonFinite, instant)
	}
	c.instant = instant
	c.comp = 0
	return nil
}

// JumpBy shifts the instant by delta days regardless of rate and pause state.
func (c *Clock) JumpBy(delta float64) error {
	if !isFinite(delta) {
		return fmt.Errorf("%w: delta %v", ErrNonFinite, delta)
	}
	return c.JumpTo(c.Instant() + delta)
}

// Instant returns the current Julian Date.
func (c *Clock) Instant() float64 {
	return c.instant + c.comp
}

// Rate returns the current multiplier.
func (c *Clock) Rate() float64 { return c.rate }

// IsPaused reports whether the clock is paused.
func (c *Clock) IsPaused() bool { return c.paused }

// Time returns the current instant as a UTC calendar time.
func (c *Clock) Time() time.Time {
	return celestial.JDToTime(c.Instant())
}

func (c *Clock) Snapshot() Snapshot {
	return Snapshot{Instant: c.Instant(), Rate: c.rate, Paused: c.paused}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
