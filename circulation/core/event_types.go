package core

// AllEventTypes lists every event type of an item stream, in the order they are usually first seen.
func AllEventTypes() []EventTypeString {
	return []EventTypeString{
		ItemCopyCountChangedEventType,
		LoanCreatedEventType,
		LoanReturnedEventType,
		LoanMarkedOverdueEventType,
		LoanMarkedLostEventType,
		FinePaymentRecordedEventType,
		ReservationEnqueuedEventType,
		ReservationOfferedEventType,
		ReservationFulfilledEventType,
		ReservationExpiredEventType,
		ReservationCancelledEventType,
	}
}
