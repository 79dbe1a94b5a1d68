package core

// ReservationStatus is the closed set of reservation states.
type ReservationStatus uint8

const (
	ReservationStatusActive ReservationStatus = iota + 1
	ReservationStatusOffered
	ReservationStatusFulfilled
	ReservationStatusExpired
	ReservationStatusCancelled
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusActive:  {ReservationStatusOffered, ReservationStatusCancelled},
	ReservationStatusOffered: {ReservationStatusFulfilled, ReservationStatusExpired, ReservationStatusCancelled},
}

// CanTransitionTo reports whether the transition table allows moving from s to next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether s is fulfilled, expired or cancelled.
func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

func (s ReservationStatus) String() string {
	switch s {
	case ReservationStatusActive:
		return "active"
	case ReservationStatusOffered:
		return "offered"
	case ReservationStatusFulfilled:
		return "fulfilled"
	case ReservationStatusExpired:
		return "expired"
	case ReservationStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
