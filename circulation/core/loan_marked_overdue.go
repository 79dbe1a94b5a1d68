package core

import (
	"time"
)

// LoanMarkedOverdueEventType is the event type identifier.
const LoanMarkedOverdueEventType = "LoanMarkedOverdue"

// LoanMarkedOverdue represents the overdue sweep finding a borrowed loan past its due date.
type LoanMarkedOverdue struct {
	EventType  EventTypeString
	ItemID     ItemIDString
	LoanID     LoanIDString
	UserID     UserIDString
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildLoanMarkedOverdue creates a new LoanMarkedOverdue event.
func BuildLoanMarkedOverdue(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	dueDate time.Time,
	occurredAt time.Time,
) LoanMarkedOverdue {

	return LoanMarkedOverdue{
		EventType:  LoanMarkedOverdueEventType,
		ItemID:     itemID,
		LoanID:     loanID,
		UserID:     userID,
		DueDate:    ToOccurredAt(dueDate),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanMarkedOverdue) IsEventType() string {
	return LoanMarkedOverdueEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanMarkedOverdue) HasOccurredAt() time.Time {
	return e.OccurredAt
}
