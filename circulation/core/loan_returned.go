package core

import (
	"time"
)

// LoanReturnedEventType is the event type identifier.
const LoanReturnedEventType = "LoanReturned"

// LoanReturned represents a borrowed or overdue loan coming back. FineAmount is zero when it was on time.
type LoanReturned struct {
	EventType   EventTypeString
	ItemID      ItemIDString
	LoanID      LoanIDString
	UserID      UserIDString
	OverdueDays int
	FineAmount  Money
	OccurredAt  OccurredAtTS
}

// BuildLoanReturned creates a new LoanReturned event.
func BuildLoanReturned(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	overdueDays int,
	fineAmount Money,
	occurredAt time.Time,
) LoanReturned {

	return LoanReturned{
		EventType:   LoanReturnedEventType,
		ItemID:      itemID,
		LoanID:      loanID,
		UserID:      userID,
		OverdueDays: overdueDays,
		FineAmount:  fineAmount,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanReturned) IsEventType() string {
	return LoanReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
