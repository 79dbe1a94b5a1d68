package core

import (
	"errors"
	"time"
)

// decider accumulates the events of one decision on a private copy of the item state.
// Every emitted event is applied immediately, so later steps of the same decision see its effect.
type decider struct {
	state  ItemState
	events DomainEvents
	at     time.Time
	policy Policy
}

func newDecider(state ItemState, at time.Time, policy Policy) *decider {
	return &decider{
		state:  state.Clone(),
		at:     ToOccurredAt(at),
		policy: policy,
	}
}

func (d *decider) emit(event DomainEvent) error {
	if err := d.state.Apply(event); err != nil {
		return err
	}

	d.events = append(d.events, event)

	return nil
}

// offerNext hands a free copy to the head of the queue, unless an offer is already outstanding.
// A copy freed while an offer is outstanding stays in the pool until that offer resolves.
func (d *decider) offerNext() error {
	if d.state.Reservations.OfferedCount() > 0 || d.state.Availability.Available() == 0 {
		return nil
	}

	offer, ok := d.state.Reservations.NextOffer(d.state.ItemID, d.at, d.policy.HoldWindow)
	if !ok {
		return nil
	}

	return d.emit(offer)
}

// expireElapsedOffers expires every offer whose hold window elapsed and re-offers the freed copy.
// The loop is bounded by the number of reservations, each of which can expire at most once.
func (d *decider) expireElapsedOffers() (int, error) {
	expired := 0
	limit := len(d.state.Reservations.order) + 1

	for range limit {
		elapsed := d.state.Reservations.ExpireSweep(d.at)
		if len(elapsed) == 0 {
			break
		}

		for _, event := range elapsed {
			if err := d.emit(event); err != nil {
				return expired, err
			}

			expired++
		}

		if err := d.offerNext(); err != nil {
			return expired, err
		}
	}

	return expired, nil
}

func (d *decider) result() DecisionResult {
	if len(d.events) == 0 {
		return IdempotentDecision(d.state)
	}

	if err := d.state.CheckInvariant(); err != nil {
		return ErrorDecision(errors.Join(ErrInconsistentHistory, err))
	}

	return SuccessDecision(d.state, d.events)
}
