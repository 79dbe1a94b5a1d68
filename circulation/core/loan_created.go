package core

import (
	"time"
)

// LoanCreatedEventType is the event type identifier.
const LoanCreatedEventType = "LoanCreated"

// LoanCreated represents a user taking custody of one copy of an item.
// ReservationID is set when the loan fulfils an offer; the copy was then already held out of the pool.
type LoanCreated struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	LoanID        LoanIDString
	UserID        UserIDString
	ReservationID ReservationIDString
	DueDate       time.Time
	OccurredAt    OccurredAtTS
}

// BuildLoanCreated creates a new LoanCreated event.
func BuildLoanCreated(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	reservationID ReservationIDString,
	dueDate time.Time,
	occurredAt time.Time,
) LoanCreated {

	return LoanCreated{
		EventType:     LoanCreatedEventType,
		ItemID:        itemID,
		LoanID:        loanID,
		UserID:        userID,
		ReservationID: reservationID,
		DueDate:       ToOccurredAt(dueDate),
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanCreated) IsEventType() string {
	return LoanCreatedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanCreated) HasOccurredAt() time.Time {
	return e.OccurredAt
}
