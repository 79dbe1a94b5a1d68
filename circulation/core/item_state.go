package core

import (
	"errors"
	"fmt"
)

// ItemState is everything the engine knows about one item: its copy counts, loans and reservations.
// It is projected from the item's event stream and never persisted on its own.
type ItemState struct {
	ItemID       ItemIDString
	Known        bool
	Availability AvailabilityTracker
	Loans        LoanLedger
	Reservations ReservationQueue
}

// NewItemState returns the state of an item the catalog has never announced.
func NewItemState(itemID ItemIDString) ItemState {
	return ItemState{
		ItemID:       itemID,
		Availability: NewAvailabilityTracker(0),
		Loans:        NewLoanLedger(),
		Reservations: NewReservationQueue(),
	}
}

// ProjectItemState folds the history of one item into its current state.
func ProjectItemState(itemID ItemIDString, history DomainEvents) (ItemState, error) {
	s := NewItemState(itemID)

	for _, event := range history {
		if err := s.Apply(event); err != nil {
			return ItemState{}, err
		}
	}

	return s, nil
}

// Clone returns a deep copy, so a decision can be tried out without touching the original.
func (s ItemState) Clone() ItemState {
	return ItemState{
		ItemID:       s.ItemID,
		Known:        s.Known,
		Availability: s.Availability,
		Loans:        s.Loans.clone(),
		Reservations: s.Reservations.clone(),
	}
}

// Outstanding returns the number of copies out of the pool: on loan or held for an offer.
func (s *ItemState) Outstanding() int {
	return s.Loans.ActiveCount() + s.Reservations.OfferedCount()
}

// Apply routes one event to the components it affects.
func (s *ItemState) Apply(event DomainEvent) error {
	if err := s.apply(event); err != nil {
		return errors.Join(ErrInconsistentHistory, fmt.Errorf("%s: %w", event.IsEventType(), err))
	}

	return nil
}

func (s *ItemState) apply(event DomainEvent) error {
	switch e := event.(type) {
	case ItemCopyCountChanged:
		if err := s.Availability.Reconcile(e.NewTotal, s.Outstanding()); err != nil {
			return err
		}

		s.Known = true

	case LoanCreated:
		if e.ReservationID == "" {
			if err := s.Availability.TryReserveCopy(); err != nil {
				return err
			}
		}

		return s.Loans.apply(e)

	case LoanReturned:
		if err := s.Loans.apply(e); err != nil {
			return err
		}

		s.Availability.ReleaseCopy()

	case LoanMarkedOverdue, FinePaymentRecorded:
		return s.Loans.apply(e)

	case LoanMarkedLost:
		if err := s.Loans.apply(e); err != nil {
			return err
		}

		s.Availability.RemoveCopyPermanently()

	case ReservationEnqueued, ReservationFulfilled:
		return s.Reservations.apply(e)

	case ReservationOffered:
		if err := s.Availability.TryReserveCopy(); err != nil {
			return err
		}

		return s.Reservations.apply(e)

	case ReservationExpired:
		if err := s.Reservations.apply(e); err != nil {
			return err
		}

		s.Availability.ReleaseCopy()

	case ReservationCancelled:
		before, ok := s.Reservations.Get(e.ReservationID)
		if !ok {
			return ErrReservationNotFound
		}

		if err := s.Reservations.apply(e); err != nil {
			return err
		}

		if before.Status == ReservationStatusOffered {
			s.Availability.ReleaseCopy()
		}

	default:
		return fmt.Errorf("unexpected event %T", event)
	}

	return nil
}

// CheckInvariant verifies the accounting and queue properties that must hold between decisions.
func (s *ItemState) CheckInvariant() error {
	total := s.Availability.Total()
	available := s.Availability.Available()

	if available < 0 || available > total {
		return fmt.Errorf("item %s: available %d outside [0, %d]", s.ItemID, available, total)
	}

	if available+s.Outstanding() != total {
		return fmt.Errorf(
			"item %s: available %d + active loans %d + offers %d != total %d",
			s.ItemID, available, s.Loans.ActiveCount(), s.Reservations.OfferedCount(), total,
		)
	}

	if offered := s.Reservations.OfferedCount(); offered > 1 {
		return fmt.Errorf("item %s: %d offers outstanding", s.ItemID, offered)
	}

	seen := make(map[int]bool)
	for _, r := range s.Reservations.Reservations() {
		if r.Status.IsTerminal() {
			continue
		}

		if seen[r.QueuePosition] {
			return fmt.Errorf("item %s: queue position %d used twice", s.ItemID, r.QueuePosition)
		}

		seen[r.QueuePosition] = true
	}

	return nil
}
