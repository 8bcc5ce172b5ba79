// Package clock provides the time source used when timestamping signed
// requests. Injecting it keeps request construction deterministic in tests.
package clock

import "time"

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type system struct{}

func (system) Now() time.Time { return time.Now() }

// System is the wall clock
var System Clock = system{}

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a plain function to a Clock
type Func func() time.Time

// Now calls the wrapped function
func (f Func) Now() time.Time { return f() }
