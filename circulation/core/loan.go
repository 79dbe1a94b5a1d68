package core

import (
	"time"
)

// Loan is one user's custody of one copy of an item. Loans are never deleted.
type Loan struct {
	LoanID         LoanIDString
	ItemID         ItemIDString
	UserID         UserIDString
	ReservationID  ReservationIDString
	BorrowedAt     time.Time
	DueDate        time.Time
	ReturnedAt     time.Time // zero until returned
	Status         LoanStatus
	OverdueDays    int
	FineAmount     Money
	FinePaid       bool
	FinePaidAmount Money
}

// IsReturned reports whether ReturnedAt is set.
func (l Loan) IsReturned() bool {
	return !l.ReturnedAt.IsZero()
}

// HasOutstandingFine reports whether a fine was assessed and not yet fully received.
func (l Loan) HasOutstandingFine() bool {
	return l.FineAmount > 0 && !l.FinePaid
}
