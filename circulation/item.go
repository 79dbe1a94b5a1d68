package circulation

import (
	"context"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

// ItemSnapshot is a read-only view of one item at a point in time.
type ItemSnapshot struct {
	ItemID          core.ItemIDString
	TotalCopies     int
	AvailableCopies int
	OfferedCopies   int
	Loans           []core.Loan        // in creation order, including terminal ones
	Reservations    []core.Reservation // in enqueue order, including terminal ones
}

// ActiveLoans counts borrowed and overdue loans.
func (s ItemSnapshot) ActiveLoans() int {
	count := 0

	for _, loan := range s.Loans {
		if loan.Status.IsActive() {
			count++
		}
	}

	return count
}

func snapshotOf(state core.ItemState) ItemSnapshot {
	return ItemSnapshot{
		ItemID:          state.ItemID,
		TotalCopies:     state.Availability.Total(),
		AvailableCopies: state.Availability.Available(),
		OfferedCopies:   state.Reservations.OfferedCount(),
		Loans:           state.Loans.Loans(),
		Reservations:    state.Reservations.Reservations(),
	}
}

// Item returns the current state of an item. It takes no lock and never writes.
func (c *Coordinator) Item(ctx context.Context, itemID core.ItemIDString) (ItemSnapshot, error) {
	if itemID == "" {
		return ItemSnapshot{}, core.ErrEmptyID
	}

	state, err := c.projectItem(eventstore.WithStrongConsistency(ctx), itemID)
	if err != nil {
		return ItemSnapshot{}, err
	}

	if !state.Known {
		return ItemSnapshot{}, core.ErrItemNotFound
	}

	return snapshotOf(state), nil
}

func (c *Coordinator) projectItem(ctx context.Context, itemID core.ItemIDString) (core.ItemState, error) {
	storableEvents, _, err := c.eventStore.Query(ctx, ItemStreamFilter(itemID))
	if err != nil {
		return core.ItemState{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return core.ItemState{}, err
	}

	return core.ProjectItemState(itemID, history)
}

func (c *Coordinator) itemOfLoan(ctx context.Context, loanID core.LoanIDString) (core.ItemIDString, error) {
	if loanID == "" {
		return "", core.ErrEmptyID
	}

	return c.lookupItemID(ctx, loanLookupFilter(loanID), core.ErrLoanNotFound)
}

func (c *Coordinator) itemOfReservation(ctx context.Context, reservationID core.ReservationIDString) (core.ItemIDString, error) {
	if reservationID == "" {
		return "", core.ErrEmptyID
	}

	return c.lookupItemID(ctx, reservationLookupFilter(reservationID), core.ErrReservationNotFound)
}

// lookupItemID reads the item id from the event that created a loan or a reservation.
func (c *Coordinator) lookupItemID(ctx context.Context, filter eventstore.Filter, notFound error) (core.ItemIDString, error) {
	storableEvents, _, err := c.eventStore.Query(eventstore.WithStrongConsistency(ctx), filter)
	if err != nil {
		return "", err
	}

	if len(storableEvents) == 0 {
		return "", notFound
	}

	event, err := shell.DomainEventFrom(storableEvents[0])
	if err != nil {
		return "", err
	}

	switch e := event.(type) {
	case core.LoanCreated:
		return e.ItemID, nil
	case core.ReservationEnqueued:
		return e.ItemID, nil
	}

	return "", notFound
}
