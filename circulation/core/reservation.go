package core

import (
	"time"
)

// Reservation is one user's place in an item's waitlist. Reservations are never deleted.
type Reservation struct {
	ReservationID   ReservationIDString
	ItemID          ItemIDString
	UserID          UserIDString
	ReservedAt      time.Time
	QueuePosition   int
	Status          ReservationStatus
	ExpiresAt       time.Time // set once offered
	NotifiedAt      time.Time // set once offered
	ResolvedAt      time.Time // set once terminal
	FulfilledLoanID LoanIDString
}

// HasElapsed reports whether an offered reservation can no longer be claimed at the given instant.
func (r Reservation) HasElapsed(at time.Time) bool {
	return r.Status == ReservationStatusOffered && r.ExpiresAt.Before(at)
}
