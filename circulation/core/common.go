package core

import (
	"time"
)

// ItemIDString represents an item identifier supplied by the catalog.
type ItemIDString = string

// UserIDString represents a user identifier supplied by the user directory.
type UserIDString = string

// LoanIDString represents a loan identifier.
type LoanIDString = string

// ReservationIDString represents a reservation identifier.
type ReservationIDString = string

// EventTypeString represents the type identifier of a domain event.
type EventTypeString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// Money is an amount in minor currency units.
type Money = int64

// ToOccurredAt normalizes t to UTC with microsecond precision, which is what Postgres stores.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}
