package core

// AvailabilityTracker is the only writer of an item's copy counts.
//
// Copies held for an outstanding offer are not available, so available never exceeds total
// and total minus available is always the number of copies out on loan or on hold.
type AvailabilityTracker struct {
	total     int
	available int
}

// NewAvailabilityTracker returns a tracker with all copies available.
func NewAvailabilityTracker(total int) AvailabilityTracker {
	if total < 0 {
		total = 0
	}

	return AvailabilityTracker{total: total, available: total}
}

// Total returns the number of copies the item owns.
func (t *AvailabilityTracker) Total() int {
	return t.total
}

// Available returns the number of copies free right now.
func (t *AvailabilityTracker) Available() int {
	return t.available
}

// TryReserveCopy takes one copy out of the pool, or fails with ErrNoCopiesAvailable.
func (t *AvailabilityTracker) TryReserveCopy() error {
	if t.available <= 0 {
		return ErrNoCopiesAvailable
	}

	t.available--

	return nil
}

// ReleaseCopy puts one copy back into the pool, never beyond the total.
func (t *AvailabilityTracker) ReleaseCopy() {
	if t.available < t.total {
		t.available++
	}
}

// RemoveCopyPermanently drops one copy from the total. The copy was already out of the pool.
func (t *AvailabilityTracker) RemoveCopyPermanently() {
	if t.total > 0 {
		t.total--
	}

	if t.available > t.total {
		t.available = t.total
	}
}

// Reconcile applies a catalog copy count change while outstanding copies are on loan or on hold.
func (t *AvailabilityTracker) Reconcile(newTotal, outstanding int) error {
	if newTotal < 0 || newTotal < outstanding {
		return ErrInvalidCopyCount
	}

	t.total = newTotal
	t.available = newTotal - outstanding

	return nil
}
