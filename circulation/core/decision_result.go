package core

import (
	"time"
)

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory methods:
// IdempotentDecision(), SuccessDecision() or ErrorDecision().
type DecisionResult struct {
	Outcome string       // "idempotent", "success", or "error"
	Events  DomainEvents // empty unless the outcome is success
	State   ItemState    // the item after Events, unset for errors
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// OfferIntent asks the notifier to tell a user that a copy is held for them until ExpiresAt.
type OfferIntent struct {
	UserID        UserIDString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	ExpiresAt     time.Time
}

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision(state ItemState) DecisionResult {
	return DecisionResult{
		Outcome: idempotentOutcome,
		State:   state,
	}
}

// SuccessDecision creates a DecisionResult with the events to append and the state they lead to.
func SuccessDecision(state ItemState, events DomainEvents) DecisionResult {
	return DecisionResult{
		Outcome: successOutcome,
		Events:  events,
		State:   state,
	}
}

// ErrorDecision creates a DecisionResult for a business rule violation. Nothing is appended.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasEventsToAppend returns true if there are events to append to the event store.
func (r DecisionResult) HasEventsToAppend() bool {
	return r.Outcome == successOutcome && len(r.Events) > 0
}

// IsIdempotent returns true if nothing had to change.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}

// OfferIntents returns one notification intent per offer made by the decision, in event order.
func (r DecisionResult) OfferIntents() []OfferIntent {
	var intents []OfferIntent

	for _, event := range r.Events {
		if offer, ok := event.(ReservationOffered); ok {
			intents = append(intents, OfferIntent{
				UserID:        offer.UserID,
				ItemID:        offer.ItemID,
				ReservationID: offer.ReservationID,
				ExpiresAt:     offer.ExpiresAt,
			})
		}
	}

	return intents
}

// CountEvents returns how many of the decided events have the given type.
func (r DecisionResult) CountEvents(eventType EventTypeString) int {
	count := 0

	for _, event := range r.Events {
		if event.IsEventType() == eventType {
			count++
		}
	}

	return count
}
