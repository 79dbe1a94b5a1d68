package core

import (
	"time"
)

// ReservationEnqueuedEventType is the event type identifier.
const ReservationEnqueuedEventType = "ReservationEnqueued"

// ReservationEnqueued represents a user joining an item's waitlist at QueuePosition.
type ReservationEnqueued struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	ReservationID ReservationIDString
	UserID        UserIDString
	QueuePosition int
	OccurredAt    OccurredAtTS
}

// BuildReservationEnqueued creates a new ReservationEnqueued event.
func BuildReservationEnqueued(
	itemID ItemIDString,
	reservationID ReservationIDString,
	userID UserIDString,
	queuePosition int,
	occurredAt time.Time,
) ReservationEnqueued {

	return ReservationEnqueued{
		EventType:     ReservationEnqueuedEventType,
		ItemID:        itemID,
		ReservationID: reservationID,
		UserID:        userID,
		QueuePosition: queuePosition,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReservationEnqueued) IsEventType() string {
	return ReservationEnqueuedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationEnqueued) HasOccurredAt() time.Time {
	return e.OccurredAt
}
