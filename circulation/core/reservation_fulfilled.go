package core

import (
	"time"
)

// ReservationFulfilledEventType is the event type identifier.
const ReservationFulfilledEventType = "ReservationFulfilled"

// ReservationFulfilled represents the offered user borrowing the held copy as LoanID.
type ReservationFulfilled struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	UserID        UserIDString
	LoanID        LoanIDString
	OccurredAt    OccurredAtTS
}

// BuildReservationFulfilled creates a new ReservationFulfilled event.
func BuildReservationFulfilled(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	loanID LoanIDString,
	occurredAt time.Time,
) ReservationFulfilled {

	return ReservationFulfilled{
		EventType:     ReservationFulfilledEventType,
		ItemID:        itemID,
		ReservationID: reservationID,
		UserID:        userID,
		LoanID:        loanID,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReservationFulfilled) IsEventType() string {
	return ReservationFulfilledEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationFulfilled) HasOccurredAt() time.Time {
	return e.OccurredAt
}
