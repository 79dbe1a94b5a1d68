package main

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

// logNotifier delivers offers to the log, for deployments without a messaging integration.
type logNotifier struct {
	logger eventstore.ContextualLogger
}

func newLogNotifier(logger eventstore.ContextualLogger) logNotifier {
	return logNotifier{logger: logger}
}

func (n logNotifier) Notify(ctx context.Context, notification circulation.OfferNotification) error {
	n.logger.InfoContext(ctx, "reservation offered",
		"user_id", notification.UserID,
		"item_id", notification.ItemID,
		"reservation_id", notification.ReservationID,
		"expires_at", notification.ExpiresAt.Format(time.RFC3339))

	return nil
}
