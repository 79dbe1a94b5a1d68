package core

import (
	"time"
)

// ReservationOfferedEventType is the event type identifier.
const ReservationOfferedEventType = "ReservationOffered"

// ReservationOffered represents a freed copy being held for the head of the queue until ExpiresAt.
// The user is notified at OccurredAt.
type ReservationOffered struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	UserID        UserIDString
	ExpiresAt     time.Time
	OccurredAt    OccurredAtTS
}

// BuildReservationOffered creates a new ReservationOffered event.
func BuildReservationOffered(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	expiresAt time.Time,
	occurredAt time.Time,
) ReservationOffered {

	return ReservationOffered{
		EventType:     ReservationOfferedEventType,
		ItemID:        itemID,
		ReservationID: reservationID,
		UserID:        userID,
		ExpiresAt:     ToOccurredAt(expiresAt),
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReservationOffered) IsEventType() string {
	return ReservationOfferedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationOffered) HasOccurredAt() time.Time {
	return e.OccurredAt
}
