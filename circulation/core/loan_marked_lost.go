package core

import (
	"time"
)

// LoanMarkedLostEventType is the event type identifier.
const LoanMarkedLostEventType = "LoanMarkedLost"

// LoanMarkedLost represents a copy that will never come back. The copy leaves the item's total for good.
type LoanMarkedLost struct {
	EventType  EventTypeString
	ItemID     ItemIDString
	LoanID     LoanIDString
	UserID     UserIDString
	FineAmount Money
	OccurredAt OccurredAtTS
}

// BuildLoanMarkedLost creates a new LoanMarkedLost event.
func BuildLoanMarkedLost(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	fineAmount Money,
	occurredAt time.Time,
) LoanMarkedLost {

	return LoanMarkedLost{
		EventType:  LoanMarkedLostEventType,
		ItemID:     itemID,
		LoanID:     loanID,
		UserID:     userID,
		FineAmount: fineAmount,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanMarkedLost) IsEventType() string {
	return LoanMarkedLostEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanMarkedLost) HasOccurredAt() time.Time {
	return e.OccurredAt
}
