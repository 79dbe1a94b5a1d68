package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	payload := storableEvent.PayloadJSON

	switch storableEvent.EventType {
	case core.ItemCopyCountChangedEventType:
		return unmarshalPayload[core.ItemCopyCountChanged](payload)

	case core.LoanCreatedEventType:
		return unmarshalPayload[core.LoanCreated](payload)

	case core.LoanReturnedEventType:
		return unmarshalPayload[core.LoanReturned](payload)

	case core.LoanMarkedOverdueEventType:
		return unmarshalPayload[core.LoanMarkedOverdue](payload)

	case core.LoanMarkedLostEventType:
		return unmarshalPayload[core.LoanMarkedLost](payload)

	case core.FinePaymentRecordedEventType:
		return unmarshalPayload[core.FinePaymentRecorded](payload)

	case core.ReservationEnqueuedEventType:
		return unmarshalPayload[core.ReservationEnqueued](payload)

	case core.ReservationOfferedEventType:
		return unmarshalPayload[core.ReservationOffered](payload)

	case core.ReservationFulfilledEventType:
		return unmarshalPayload[core.ReservationFulfilled](payload)

	case core.ReservationExpiredEventType:
		return unmarshalPayload[core.ReservationExpired](payload)

	case core.ReservationCancelledEventType:
		return unmarshalPayload[core.ReservationCancelled](payload)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalPayload[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var event E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}
