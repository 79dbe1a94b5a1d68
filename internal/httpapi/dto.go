package httpapi

import (
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

type copyCountRequest struct {
	TotalCopies *int `json:"totalCopies"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type paymentRequest struct {
	Amount core.Money `json:"amount"`
}

// LoanResponse is the wire form of a loan.
type LoanResponse struct {
	LoanID         string     `json:"loanId"`
	ItemID         string     `json:"itemId"`
	UserID         string     `json:"userId"`
	ReservationID  string     `json:"reservationId,omitempty"`
	Status         string     `json:"status"`
	BorrowedAt     time.Time  `json:"borrowedAt"`
	DueDate        time.Time  `json:"dueDate"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`
	OverdueDays    int        `json:"overdueDays"`
	FineAmount     core.Money `json:"fineAmount"`
	FinePaidAmount core.Money `json:"finePaidAmount"`
	FinePaid       bool       `json:"finePaid"`
}

// ReservationResponse is the wire form of a reservation.
type ReservationResponse struct {
	ReservationID   string     `json:"reservationId"`
	ItemID          string     `json:"itemId"`
	UserID          string     `json:"userId"`
	Status          string     `json:"status"`
	QueuePosition   int        `json:"queuePosition"`
	ReservedAt      time.Time  `json:"reservedAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	FulfilledLoanID string     `json:"fulfilledLoanId,omitempty"`
}

// ItemResponse is the wire form of an item snapshot.
type ItemResponse struct {
	ItemID          string                `json:"itemId"`
	TotalCopies     int                   `json:"totalCopies"`
	AvailableCopies int                   `json:"availableCopies"`
	OfferedCopies   int                   `json:"offeredCopies"`
	ActiveLoans     int                   `json:"activeLoans"`
	Loans           []LoanResponse        `json:"loans"`
	Reservations    []ReservationResponse `json:"reservations"`
}

// BorrowResponse carries either the loan or the reservation.
type BorrowResponse struct {
	Status      string               `json:"status"`
	Loan        *LoanResponse        `json:"loan,omitempty"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

// ReturnResponse is returned by the return and lost endpoints.
type ReturnResponse struct {
	Loan         LoanResponse `json:"loan"`
	FineAssessed core.Money   `json:"fineAssessed"`
}

// PaymentResponse is returned by the payments endpoint.
type PaymentResponse struct {
	Loan      LoanResponse `json:"loan"`
	FullyPaid bool         `json:"fullyPaid"`
}

// TickResponse is returned by the tick endpoint.
type TickResponse struct {
	OverdueTransitioned int `json:"overdueTransitioned"`
	ExpiredReservations int `json:"expiredReservations"`
	ItemsSwept          int `json:"itemsSwept"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func loanResponseFrom(loan core.Loan) LoanResponse {
	return LoanResponse{
		LoanID:         loan.LoanID,
		ItemID:         loan.ItemID,
		UserID:         loan.UserID,
		ReservationID:  loan.ReservationID,
		Status:         loan.Status.String(),
		BorrowedAt:     loan.BorrowedAt,
		DueDate:        loan.DueDate,
		ReturnedAt:     optionalTime(loan.ReturnedAt),
		OverdueDays:    loan.OverdueDays,
		FineAmount:     loan.FineAmount,
		FinePaidAmount: loan.FinePaidAmount,
		FinePaid:       loan.FinePaid,
	}
}

func reservationResponseFrom(reservation core.Reservation) ReservationResponse {
	return ReservationResponse{
		ReservationID:   reservation.ReservationID,
		ItemID:          reservation.ItemID,
		UserID:          reservation.UserID,
		Status:          reservation.Status.String(),
		QueuePosition:   reservation.QueuePosition,
		ReservedAt:      reservation.ReservedAt,
		ExpiresAt:       optionalTime(reservation.ExpiresAt),
		FulfilledLoanID: reservation.FulfilledLoanID,
	}
}

func itemResponseFrom(snapshot circulation.ItemSnapshot) ItemResponse {
	loans := make([]LoanResponse, 0, len(snapshot.Loans))
	for _, loan := range snapshot.Loans {
		loans = append(loans, loanResponseFrom(loan))
	}

	reservations := make([]ReservationResponse, 0, len(snapshot.Reservations))
	for _, reservation := range snapshot.Reservations {
		reservations = append(reservations, reservationResponseFrom(reservation))
	}

	return ItemResponse{
		ItemID:          snapshot.ItemID,
		TotalCopies:     snapshot.TotalCopies,
		AvailableCopies: snapshot.AvailableCopies,
		OfferedCopies:   snapshot.OfferedCopies,
		ActiveLoans:     snapshot.ActiveLoans(),
		Loans:           loans,
		Reservations:    reservations,
	}
}

func borrowResponseFrom(result circulation.BorrowResult) BorrowResponse {
	response := BorrowResponse{Status: string(result.Status)}

	if result.Loan != nil {
		loan := loanResponseFrom(*result.Loan)
		response.Loan = &loan
	}

	if result.Reservation != nil {
		reservation := reservationResponseFrom(*result.Reservation)
		response.Reservation = &reservation
	}

	return response
}
