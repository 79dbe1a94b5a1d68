package core

import (
	"time"
)

// ReservationExpiredEventType is the event type identifier.
const ReservationExpiredEventType = "ReservationExpired"

// ReservationExpired represents an offer that was not claimed within the hold window.
type ReservationExpired struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	UserID        UserIDString
	OccurredAt    OccurredAtTS
}

// BuildReservationExpired creates a new ReservationExpired event.
func BuildReservationExpired(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	occurredAt time.Time,
) ReservationExpired {

	return ReservationExpired{
		EventType:     ReservationExpiredEventType,
		ItemID:        itemID,
		ReservationID: reservationID,
		UserID:        userID,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReservationExpired) IsEventType() string {
	return ReservationExpiredEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationExpired) HasOccurredAt() time.Time {
	return e.OccurredAt
}
