// Package clock abstracts wall-clock time so due dates, hold windows and sweeps can be tested deterministically.
package clock

import "time"

// Clock is the time source of the Coordinator and the sweep loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
}

// Real implements Clock using the standard library. Now is always UTC.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (Real) Sleep(d time.Duration) {
	time.Sleep(d)
}
