package core

import (
	"time"
)

const day = 24 * time.Hour

// FineCalculator computes penalties from loan timing. It has no state besides its rates.
type FineCalculator struct {
	perDayRate      Money
	maxFineCap      Money
	replacementCost Money
}

// NewFineCalculator creates a FineCalculator. A maxFineCap of zero means uncapped.
func NewFineCalculator(perDayRate, maxFineCap, replacementCost Money) FineCalculator {
	return FineCalculator{
		perDayRate:      perDayRate,
		maxFineCap:      maxFineCap,
		replacementCost: replacementCost,
	}
}

// OverdueDays returns the number of full days between dueDate and at, or zero when at is not after dueDate.
func (c FineCalculator) OverdueDays(dueDate, at time.Time) int {
	if !at.After(dueDate) {
		return 0
	}

	return int(at.Sub(dueDate) / day)
}

// OverdueFine returns the capped per-day fine for a loan due at dueDate and returned at returnedAt.
func (c FineCalculator) OverdueFine(dueDate, returnedAt time.Time) (int, Money) {
	days := c.OverdueDays(dueDate, returnedAt)
	fine := Money(days) * c.perDayRate

	if c.maxFineCap > 0 && fine > c.maxFineCap {
		fine = c.maxFineCap
	}

	return days, fine
}

// LostFine returns the fine of a lost loan, which overrides any overdue fine.
func (c FineCalculator) LostFine() Money {
	return c.replacementCost
}

// ApplyPayment adds amount to what was already paid and reports whether the fine is now covered.
func (c FineCalculator) ApplyPayment(fine, alreadyPaid, amount Money) (Money, bool) {
	totalPaid := alreadyPaid + amount

	return totalPaid, totalPaid >= fine
}
