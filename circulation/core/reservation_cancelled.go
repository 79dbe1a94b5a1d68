package core

import (
	"time"
)

// ReservationCancelledEventType is the event type identifier.
const ReservationCancelledEventType = "ReservationCancelled"

// ReservationCancelled represents the owner leaving the queue. WasOffered tells whether a held copy was freed.
type ReservationCancelled struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	UserID        UserIDString
	WasOffered    bool
	OccurredAt    OccurredAtTS
}

// BuildReservationCancelled creates a new ReservationCancelled event.
func BuildReservationCancelled(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	wasOffered bool,
	occurredAt time.Time,
) ReservationCancelled {

	return ReservationCancelled{
		EventType:     ReservationCancelledEventType,
		ItemID:        itemID,
		ReservationID: reservationID,
		UserID:        userID,
		WasOffered:    wasOffered,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReservationCancelled) IsEventType() string {
	return ReservationCancelledEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationCancelled) HasOccurredAt() time.Time {
	return e.OccurredAt
}
