package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// CancelResult carries the cancelled reservation.
type CancelResult struct {
	Reservation core.Reservation
}

// CancelReservation withdraws the user's reservation. Cancelling an offer passes the held copy on.
func (c *Coordinator) CancelReservation(
	ctx context.Context,
	reservationID core.ReservationIDString,
	userID core.UserIDString,
) (CancelResult, error) {

	if userID == "" {
		return CancelResult{}, core.ErrEmptyID
	}

	itemID, err := c.itemOfReservation(ctx, reservationID)
	if err != nil {
		return CancelResult{}, err
	}

	decision, err := c.runOnItem(ctx, operationCancelReservation, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		command := core.CancelReservationCommand{ReservationID: reservationID, UserID: userID, At: at}
		return core.DecideCancelReservation(state, command, c.policy)
	})
	if err != nil {
		return CancelResult{}, err
	}

	reservation, _ := decision.State.Reservations.Get(reservationID)

	return CancelResult{Reservation: reservation}, nil
}
