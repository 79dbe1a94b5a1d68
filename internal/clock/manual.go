package clock

import (
	"sync"
	"time"
)

// Manual is a clock that only moves when told to. Timers created with After fire during Advance or Set.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []manualTimer
}

type manualTimer struct {
	at time.Time
	ch chan time.Time
}

// NewManual constructs a Manual clock starting at the supplied time, converted to UTC.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// After returns a buffered channel that receives once the clock reaches now+d.
// A non-positive d fires immediately.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if d <= 0 {
		ch <- m.now
		return ch
	}

	m.timers = append(m.timers, manualTimer{at: m.now.Add(d), ch: ch})

	return ch
}

// Sleep blocks until another goroutine advances the clock by at least d.
func (m *Manual) Sleep(d time.Duration) {
	<-m.After(d)
}

// Advance moves time forward by d (negative values are ignored) and fires all due timers.
func (m *Manual) Advance(d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.moveTo(m.now.Add(d))

	return m.now
}

// Set moves the clock to t if t is later than the current time, and fires all due timers.
func (m *Manual) Set(t time.Time) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.After(m.now) {
		m.moveTo(t.UTC())
	}

	return m.now
}

// Pending returns the number of timers that have not fired yet.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.timers)
}

// moveTo must be called with mu held.
func (m *Manual) moveTo(t time.Time) {
	m.now = t

	remaining := m.timers[:0]
	for _, timer := range m.timers {
		if timer.at.After(t) {
			remaining = append(remaining, timer)
			continue
		}

		timer.ch <- t
	}

	m.timers = remaining
}
