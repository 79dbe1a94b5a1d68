package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
)

const defaultNotifyTimeout = 5 * time.Second

// OfferNotification tells a user that a copy of an item is held for them until ExpiresAt.
type OfferNotification struct {
	UserID        core.UserIDString
	ItemID        core.ItemIDString
	ReservationID core.ReservationIDString
	ExpiresAt     time.Time
}

// Notifier delivers offer notifications, e.g. by mail or push.
// A failed delivery is logged and not retried; the offer stays valid either way.
type Notifier interface {
	Notify(ctx context.Context, notification OfferNotification) error
}

// NoopNotifier drops all notifications.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, OfferNotification) error {
	return nil
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, notification OfferNotification) error

func (f NotifierFunc) Notify(ctx context.Context, notification OfferNotification) error {
	return f(ctx, notification)
}

// dispatchOffers runs after the append committed. The operation's cancellation does not reach the notifier.
func (c *Coordinator) dispatchOffers(ctx context.Context, operation string, intents []core.OfferIntent) {
	if len(intents) == 0 {
		return
	}

	for range intents {
		shell.IncrementCounter(ctx, c.metricsCollector, shell.OffersMetric, map[string]string{shell.LabelOperation: operation})
	}

	notifyCtx := context.WithoutCancel(ctx)

	if c.syncNotifications {
		c.notifyAll(notifyCtx, operation, intents)
		return
	}

	c.notifications.Add(1)
	go func() {
		defer c.notifications.Done()
		c.notifyAll(notifyCtx, operation, intents)
	}()
}

func (c *Coordinator) notifyAll(ctx context.Context, operation string, intents []core.OfferIntent) {
	for _, intent := range intents {
		notification := OfferNotification{
			UserID:        intent.UserID,
			ItemID:        intent.ItemID,
			ReservationID: intent.ReservationID,
			ExpiresAt:     intent.ExpiresAt,
		}

		notifyCtx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
		err := c.notifier.Notify(notifyCtx, notification)
		cancel()

		if err != nil {
			c.logWarn(ctx, shell.LogMsgNotifyFailed,
				shell.LogAttrOperation, operation,
				shell.LogAttrItemID, intent.ItemID,
				shell.LogAttrReservationID, intent.ReservationID,
				shell.LogAttrUserID, intent.UserID,
				shell.LogAttrError, err.Error())
			shell.IncrementCounter(ctx, c.metricsCollector, shell.NotificationFailuresMetric, map[string]string{
				shell.LabelOperation: operation,
			})
		}
	}
}
