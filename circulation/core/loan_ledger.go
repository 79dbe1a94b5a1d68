package core

import (
	"errors"
	"time"
)

// LoanLedger holds all loans of one item, active and historical.
//
// The exported methods validate an intended change and return the event describing it without mutating the ledger.
// Only apply mutates, so a ledger always equals the fold of the events it has seen.
type LoanLedger struct {
	loans map[LoanIDString]*Loan
	order []LoanIDString
}

// NewLoanLedger returns an empty LoanLedger.
func NewLoanLedger() LoanLedger {
	return LoanLedger{loans: make(map[LoanIDString]*Loan)}
}

func (l *LoanLedger) clone() LoanLedger {
	c := LoanLedger{
		loans: make(map[LoanIDString]*Loan, len(l.loans)),
		order: append([]LoanIDString(nil), l.order...),
	}

	for id, loan := range l.loans {
		copied := *loan
		c.loans[id] = &copied
	}

	return c
}

// Get returns the loan with the given id.
func (l *LoanLedger) Get(loanID LoanIDString) (Loan, bool) {
	loan, ok := l.loans[loanID]
	if !ok {
		return Loan{}, false
	}

	return *loan, true
}

// ActiveLoanOf returns the user's borrowed or overdue loan, if any.
func (l *LoanLedger) ActiveLoanOf(userID UserIDString) (Loan, bool) {
	for _, id := range l.order {
		loan := l.loans[id]
		if loan.UserID == userID && loan.Status.IsActive() {
			return *loan, true
		}
	}

	return Loan{}, false
}

// Loans returns all loans in creation order.
func (l *LoanLedger) Loans() []Loan {
	loans := make([]Loan, 0, len(l.order))
	for _, id := range l.order {
		loans = append(loans, *l.loans[id])
	}

	return loans
}

// ActiveCount returns the number of loans that hold a copy.
func (l *LoanLedger) ActiveCount() int {
	count := 0
	for _, loan := range l.loans {
		if loan.Status.IsActive() {
			count++
		}
	}

	return count
}

// CreateLoan decides a new loan. The caller must already hold a copy for it.
func (l *LoanLedger) CreateLoan(
	itemID ItemIDString,
	loanID LoanIDString,
	userID UserIDString,
	reservationID ReservationIDString,
	loanPeriod time.Duration,
	at time.Time,
) (LoanCreated, error) {

	if loanID == "" || userID == "" {
		return LoanCreated{}, ErrEmptyID
	}

	if _, ok := l.ActiveLoanOf(userID); ok {
		return LoanCreated{}, ErrDuplicateActiveLoan
	}

	return BuildLoanCreated(itemID, loanID, userID, reservationID, at.Add(loanPeriod), at), nil
}

// ReturnLoan decides the return of a borrowed or overdue loan, with the fine for a late return.
func (l *LoanLedger) ReturnLoan(loanID LoanIDString, at time.Time, fines FineCalculator) (LoanReturned, error) {
	loan, ok := l.loans[loanID]
	if !ok {
		return LoanReturned{}, ErrLoanNotFound
	}

	if !loan.Status.CanTransitionTo(LoanStatusReturned) {
		return LoanReturned{}, errors.Join(ErrInvalidStateTransition, errors.New("loan is "+loan.Status.String()))
	}

	days, fine := fines.OverdueFine(loan.DueDate, at)

	return BuildLoanReturned(loan.ItemID, loan.LoanID, loan.UserID, days, fine, at), nil
}

// MarkLost decides that a loan's copy is gone for good. The replacement cost is the fine.
func (l *LoanLedger) MarkLost(loanID LoanIDString, at time.Time, fines FineCalculator) (LoanMarkedLost, error) {
	loan, ok := l.loans[loanID]
	if !ok {
		return LoanMarkedLost{}, ErrLoanNotFound
	}

	if !loan.Status.CanTransitionTo(LoanStatusLost) {
		return LoanMarkedLost{}, errors.Join(ErrInvalidStateTransition, errors.New("loan is "+loan.Status.String()))
	}

	return BuildLoanMarkedLost(loan.ItemID, loan.LoanID, loan.UserID, fines.LostFine(), at), nil
}

// SweepOverdue returns one event per borrowed loan whose due date lies before at.
// Loans that are already overdue are skipped, which makes the sweep idempotent.
func (l *LoanLedger) SweepOverdue(at time.Time) []LoanMarkedOverdue {
	var events []LoanMarkedOverdue

	for _, id := range l.order {
		loan := l.loans[id]
		if loan.Status == LoanStatusBorrowed && loan.DueDate.Before(at) {
			events = append(events, BuildLoanMarkedOverdue(loan.ItemID, loan.LoanID, loan.UserID, loan.DueDate, at))
		}
	}

	return events
}

// RecordPayment decides a payment towards the assessed fine of a loan. Payments accumulate.
func (l *LoanLedger) RecordPayment(
	loanID LoanIDString,
	amount Money,
	at time.Time,
	fines FineCalculator,
) (FinePaymentRecorded, error) {

	if amount <= 0 {
		return FinePaymentRecorded{}, ErrInvalidAmount
	}

	loan, ok := l.loans[loanID]
	if !ok {
		return FinePaymentRecorded{}, ErrLoanNotFound
	}

	if !loan.HasOutstandingFine() {
		return FinePaymentRecorded{}, errors.Join(ErrInvalidStateTransition, errors.New("loan has no outstanding fine"))
	}

	totalPaid, fullyPaid := fines.ApplyPayment(loan.FineAmount, loan.FinePaidAmount, amount)

	return BuildFinePaymentRecorded(loan.ItemID, loan.LoanID, loan.UserID, amount, totalPaid, fullyPaid, at), nil
}

func (l *LoanLedger) apply(event DomainEvent) error {
	switch e := event.(type) {
	case LoanCreated:
		if _, exists := l.loans[e.LoanID]; exists {
			return errors.Join(ErrInvalidStateTransition, errors.New("loan "+e.LoanID+" already exists"))
		}

		l.loans[e.LoanID] = &Loan{
			LoanID:        e.LoanID,
			ItemID:        e.ItemID,
			UserID:        e.UserID,
			ReservationID: e.ReservationID,
			BorrowedAt:    e.OccurredAt,
			DueDate:       e.DueDate,
			Status:        LoanStatusBorrowed,
		}
		l.order = append(l.order, e.LoanID)

	case LoanReturned:
		loan, err := l.transition(e.LoanID, LoanStatusReturned)
		if err != nil {
			return err
		}

		loan.ReturnedAt = e.OccurredAt
		loan.OverdueDays = e.OverdueDays
		loan.FineAmount = e.FineAmount

	case LoanMarkedOverdue:
		if _, err := l.transition(e.LoanID, LoanStatusOverdue); err != nil {
			return err
		}

	case LoanMarkedLost:
		loan, err := l.transition(e.LoanID, LoanStatusLost)
		if err != nil {
			return err
		}

		loan.FineAmount = e.FineAmount

	case FinePaymentRecorded:
		loan, ok := l.loans[e.LoanID]
		if !ok {
			return ErrLoanNotFound
		}

		loan.FinePaidAmount = e.TotalPaid
		loan.FinePaid = e.FullyPaid
	}

	return nil
}

func (l *LoanLedger) transition(loanID LoanIDString, next LoanStatus) (*Loan, error) {
	loan, ok := l.loans[loanID]
	if !ok {
		return nil, ErrLoanNotFound
	}

	if !loan.Status.CanTransitionTo(next) {
		return nil, errors.Join(
			ErrInvalidStateTransition,
			errors.New("loan "+loanID+": "+loan.Status.String()+" -> "+next.String()),
		)
	}

	loan.Status = next

	return loan, nil
}
