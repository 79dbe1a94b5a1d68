package core

import (
	"errors"
	"time"
)

// ReservationQueue is the ordered waitlist of one item.
//
// Queue positions are persisted data, not slice order. Like LoanLedger, only apply mutates.
type ReservationQueue struct {
	reservations map[ReservationIDString]*Reservation
	order        []ReservationIDString
}

// NewReservationQueue returns an empty ReservationQueue.
func NewReservationQueue() ReservationQueue {
	return ReservationQueue{reservations: make(map[ReservationIDString]*Reservation)}
}

func (q *ReservationQueue) clone() ReservationQueue {
	c := ReservationQueue{
		reservations: make(map[ReservationIDString]*Reservation, len(q.reservations)),
		order:        append([]ReservationIDString(nil), q.order...),
	}

	for id, reservation := range q.reservations {
		copied := *reservation
		c.reservations[id] = &copied
	}

	return c
}

// Get returns the reservation with the given id.
func (q *ReservationQueue) Get(reservationID ReservationIDString) (Reservation, bool) {
	reservation, ok := q.reservations[reservationID]
	if !ok {
		return Reservation{}, false
	}

	return *reservation, true
}

// Reservations returns all reservations in enqueue order.
func (q *ReservationQueue) Reservations() []Reservation {
	reservations := make([]Reservation, 0, len(q.order))
	for _, id := range q.order {
		reservations = append(reservations, *q.reservations[id])
	}

	return reservations
}

// Offered returns the outstanding offer of the item, if any.
func (q *ReservationQueue) Offered() (Reservation, bool) {
	for _, id := range q.order {
		if r := q.reservations[id]; r.Status == ReservationStatusOffered {
			return *r, true
		}
	}

	return Reservation{}, false
}

// OfferedCount returns the number of offered reservations. It is never more than one.
func (q *ReservationQueue) OfferedCount() int {
	return q.countWithStatus(ReservationStatusOffered)
}

// OfferedTo returns the user's offered reservation, if any.
func (q *ReservationQueue) OfferedTo(userID UserIDString) (Reservation, bool) {
	r, ok := q.ActiveReservationOf(userID)
	if !ok || r.Status != ReservationStatusOffered {
		return Reservation{}, false
	}

	return r, true
}

// ActiveReservationOf returns the user's non-terminal reservation, if any.
func (q *ReservationQueue) ActiveReservationOf(userID UserIDString) (Reservation, bool) {
	for _, id := range q.order {
		if r := q.reservations[id]; r.UserID == userID && !r.Status.IsTerminal() {
			return *r, true
		}
	}

	return Reservation{}, false
}

// HasWaiters reports whether any reservation is still waiting for an offer.
func (q *ReservationQueue) HasWaiters() bool {
	return q.countWithStatus(ReservationStatusActive) > 0
}

// WaitingCount returns the number of reservations waiting for an offer.
func (q *ReservationQueue) WaitingCount() int {
	return q.countWithStatus(ReservationStatusActive)
}

// Enqueue decides a new reservation at the end of the queue.
func (q *ReservationQueue) Enqueue(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	at time.Time,
) (ReservationEnqueued, error) {

	if reservationID == "" || userID == "" {
		return ReservationEnqueued{}, ErrEmptyID
	}

	if _, ok := q.ActiveReservationOf(userID); ok {
		return ReservationEnqueued{}, ErrDuplicateActiveReservation
	}

	return BuildReservationEnqueued(itemID, reservationID, userID, q.nextPosition(), at), nil
}

// NextOffer decides an offer to the lowest-position active reservation.
// It returns false when nobody is waiting.
func (q *ReservationQueue) NextOffer(itemID ItemIDString, at time.Time, holdWindow time.Duration) (ReservationOffered, bool) {
	var head *Reservation

	for _, id := range q.order {
		r := q.reservations[id]
		if r.Status != ReservationStatusActive {
			continue
		}

		if head == nil || r.QueuePosition < head.QueuePosition {
			head = r
		}
	}

	if head == nil {
		return ReservationOffered{}, false
	}

	return BuildReservationOffered(itemID, head.ReservationID, head.UserID, at.Add(holdWindow), at), true
}

// Fulfill decides that the offered reservation was claimed by the loan with the given id.
func (q *ReservationQueue) Fulfill(reservationID ReservationIDString, loanID LoanIDString, at time.Time) (ReservationFulfilled, error) {
	r, ok := q.reservations[reservationID]
	if !ok {
		return ReservationFulfilled{}, ErrReservationNotFound
	}

	if !r.Status.CanTransitionTo(ReservationStatusFulfilled) {
		return ReservationFulfilled{}, errors.Join(ErrInvalidStateTransition, errors.New("reservation is "+r.Status.String()))
	}

	return BuildReservationFulfilled(r.ItemID, r.ReservationID, r.UserID, loanID, at), nil
}

// ExpireSweep returns one event per offered reservation whose hold window elapsed before at.
func (q *ReservationQueue) ExpireSweep(at time.Time) []ReservationExpired {
	var events []ReservationExpired

	for _, id := range q.order {
		if r := q.reservations[id]; r.HasElapsed(at) {
			events = append(events, BuildReservationExpired(r.ItemID, r.ReservationID, r.UserID, at))
		}
	}

	return events
}

// Cancel decides the cancellation of an active or offered reservation by its owner.
func (q *ReservationQueue) Cancel(reservationID ReservationIDString, userID UserIDString, at time.Time) (ReservationCancelled, error) {
	r, ok := q.reservations[reservationID]
	if !ok {
		return ReservationCancelled{}, ErrReservationNotFound
	}

	if r.UserID != userID {
		return ReservationCancelled{}, ErrNotReservationOwner
	}

	if !r.Status.CanTransitionTo(ReservationStatusCancelled) {
		return ReservationCancelled{}, errors.Join(ErrInvalidStateTransition, errors.New("reservation is "+r.Status.String()))
	}

	return BuildReservationCancelled(r.ItemID, r.ReservationID, r.UserID, r.Status == ReservationStatusOffered, at), nil
}

func (q *ReservationQueue) apply(event DomainEvent) error {
	switch e := event.(type) {
	case ReservationEnqueued:
		if _, exists := q.reservations[e.ReservationID]; exists {
			return errors.Join(ErrInvalidStateTransition, errors.New("reservation "+e.ReservationID+" already exists"))
		}

		q.reservations[e.ReservationID] = &Reservation{
			ReservationID: e.ReservationID,
			ItemID:        e.ItemID,
			UserID:        e.UserID,
			ReservedAt:    e.OccurredAt,
			QueuePosition: e.QueuePosition,
			Status:        ReservationStatusActive,
		}
		q.order = append(q.order, e.ReservationID)

	case ReservationOffered:
		r, err := q.transition(e.ReservationID, ReservationStatusOffered)
		if err != nil {
			return err
		}

		r.ExpiresAt = e.ExpiresAt
		r.NotifiedAt = e.OccurredAt

	case ReservationFulfilled:
		r, err := q.transition(e.ReservationID, ReservationStatusFulfilled)
		if err != nil {
			return err
		}

		r.ResolvedAt = e.OccurredAt
		r.FulfilledLoanID = e.LoanID

	case ReservationExpired:
		r, err := q.transition(e.ReservationID, ReservationStatusExpired)
		if err != nil {
			return err
		}

		r.ResolvedAt = e.OccurredAt

	case ReservationCancelled:
		r, err := q.transition(e.ReservationID, ReservationStatusCancelled)
		if err != nil {
			return err
		}

		r.ResolvedAt = e.OccurredAt
	}

	return nil
}

func (q *ReservationQueue) transition(reservationID ReservationIDString, next ReservationStatus) (*Reservation, error) {
	r, ok := q.reservations[reservationID]
	if !ok {
		return nil, ErrReservationNotFound
	}

	if !r.Status.CanTransitionTo(next) {
		return nil, errors.Join(
			ErrInvalidStateTransition,
			errors.New("reservation "+reservationID+": "+r.Status.String()+" -> "+next.String()),
		)
	}

	r.Status = next

	return r, nil
}

func (q *ReservationQueue) nextPosition() int {
	highest := 0

	for _, r := range q.reservations {
		if !r.Status.IsTerminal() && r.QueuePosition > highest {
			highest = r.QueuePosition
		}
	}

	return highest + 1
}

func (q *ReservationQueue) countWithStatus(status ReservationStatus) int {
	count := 0

	for _, r := range q.reservations {
		if r.Status == status {
			count++
		}
	}

	return count
}
