package core

import (
	"time"
)

// FinePaymentRecordedEventType is the event type identifier.
const FinePaymentRecordedEventType = "FinePaymentRecorded"

// FinePaymentRecorded represents a payment received from the payment collaborator.
// TotalPaid is cumulative over all payments for the loan.
type FinePaymentRecorded struct {
	EventType  EventTypeString
	ItemID     ItemIDString
	LoanID     LoanIDString
	UserID     UserIDString
	Amount     Money
	TotalPaid  Money
	FullyPaid  bool
	OccurredAt OccurredAtTS
}

// BuildFinePaymentRecorded creates a new FinePaymentRecorded event.
func BuildFinePaymentRecorded(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	amount Money,
	totalPaid Money,
	fullyPaid bool,
	occurredAt time.Time,
) FinePaymentRecorded {

	return FinePaymentRecorded{
		EventType:  FinePaymentRecordedEventType,
		ItemID:     itemID,
		LoanID:     loanID,
		UserID:     userID,
		Amount:     amount,
		TotalPaid:  totalPaid,
		FullyPaid:  fullyPaid,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e FinePaymentRecorded) IsEventType() string {
	return FinePaymentRecordedEventType
}

// HasOccurredAt returns when this event occurred.
func (e FinePaymentRecorded) HasOccurredAt() time.Time {
	return e.OccurredAt
}
