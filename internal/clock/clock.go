// Package clock keeps simulation time moving strictly forward.
package clock

import (
	"time"

	"cppi/internal/domain"
)

// Clock tracks the current simulation time and the number of observations
// seen since the last reset.
type Clock struct {
	current      time.Time
	set          bool
	observations int
}

// New returns an uninitialized Clock.
func New() *Clock {
	return &Clock{observations: -1}
}

// Reset sets the current time to t and clears the observation counter. It may
// be called in any state.
func (c *Clock) Reset(t time.Time) {
	c.current = t
	c.set = true
	c.observations = -1
}

// Advance moves the clock to t. The observation counter is incremented even
// when t is rejected.
func (c *Clock) Advance(t time.Time) error {
	c.observations++

	if !c.set {
		c.current = t
		c.set = true
		return nil
	}
	if !t.After(c.current) {
		return &domain.CausalityError{Current: c.current, Next: t}
	}
	c.current = t
	return nil
}

// Now returns the current simulation time.
func (c *Clock) Now() (time.Time, error) {
	if !c.set {
		return time.Time{}, domain.ErrNotInitialized
	}
	return c.current, nil
}

// Initialized reports whether the clock has a current time.
func (c *Clock) Initialized() bool {
	return c.set
}

// Observations returns the number of observations since the last reset,
// starting at -1.
func (c *Clock) Observations() int {
	return c.observations
}
