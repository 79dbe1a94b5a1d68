package core

import (
	"time"
)

// ItemCopyCountChangedEventType is the event type identifier.
const ItemCopyCountChangedEventType = "ItemCopyCountChanged"

// ItemCopyCountChanged represents a catalog acquisition or withdrawal changing an item's total copies.
// The first one for an item registers it with the engine.
type ItemCopyCountChanged struct {
	EventType     EventTypeString
	ItemID        ItemIDString
	PreviousTotal int
	NewTotal      int
	OccurredAt    OccurredAtTS
}

// BuildItemCopyCountChanged creates a new ItemCopyCountChanged event.
func BuildItemCopyCountChanged(itemID ItemIDString, previousTotal, newTotal int, occurredAt time.Time) ItemCopyCountChanged {
	return ItemCopyCountChanged{
		EventType:     ItemCopyCountChangedEventType,
		ItemID:        itemID,
		PreviousTotal: previousTotal,
		NewTotal:      newTotal,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ItemCopyCountChanged) IsEventType() string {
	return ItemCopyCountChangedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ItemCopyCountChanged) HasOccurredAt() time.Time {
	return e.OccurredAt
}
