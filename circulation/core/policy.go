package core

import (
	"errors"
	"time"
)

// Policy holds the lending rules of the engine.
type Policy struct {
	// LoanPeriod is added to the borrow instant to get the due date.
	LoanPeriod time.Duration

	// HoldWindow is how long an offered reservation stays claimable.
	HoldWindow time.Duration

	// PerDayRate is charged for each full day a loan is returned late.
	PerDayRate Money

	// MaxFineCap caps the overdue fine. Zero means uncapped.
	MaxFineCap Money

	// ReplacementCost is the fine of a lost loan.
	ReplacementCost Money

	// AllowQueueOnZeroCapacity lets users queue for an item that currently has no copies at all.
	AllowQueueOnZeroCapacity bool
}

// DefaultPolicy returns the rules the daemon starts with.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:               14 * 24 * time.Hour,
		HoldWindow:               48 * time.Hour,
		PerDayRate:               10,
		MaxFineCap:               500,
		ReplacementCost:          2500,
		AllowQueueOnZeroCapacity: true,
	}
}

// Validate reports the first rule that makes the Policy unusable.
func (p Policy) Validate() error {
	switch {
	case p.LoanPeriod <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("loan period must be positive"))
	case p.HoldWindow <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("hold window must be positive"))
	case p.PerDayRate < 0:
		return errors.Join(ErrInvalidPolicy, errors.New("per-day rate must not be negative"))
	case p.MaxFineCap < 0:
		return errors.Join(ErrInvalidPolicy, errors.New("max fine cap must not be negative"))
	case p.ReplacementCost < 0:
		return errors.Join(ErrInvalidPolicy, errors.New("replacement cost must not be negative"))
	}

	return nil
}

// FineCalculator returns the FineCalculator configured by this Policy.
func (p Policy) FineCalculator() FineCalculator {
	return NewFineCalculator(p.PerDayRate, p.MaxFineCap, p.ReplacementCost)
}
