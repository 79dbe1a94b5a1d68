package circulation

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

// TickResult counts what one Tick changed.
type TickResult struct {
	OverdueTransitioned int
	ExpiredReservations int
	ItemsSwept          int
}

// Tick marks overdue loans and expires elapsed offers, cascading each freed copy to the next waiter.
// Every candidate item is swept in its own critical section, so a slow item never holds up the others.
// A failure on one item is logged, the remaining items are still swept, and all failures are returned joined.
// Tick is idempotent: a second call at the same instant changes nothing.
func (c *Coordinator) Tick(ctx context.Context) (TickResult, error) {
	if err := c.beginOperation(); err != nil {
		return TickResult{}, err
	}
	defer c.operations.Done()

	start := time.Now()
	ctx, span := shell.StartOperationSpan(ctx, c.tracingCollector, shell.SpanNameTick, map[string]string{
		shell.LogAttrOperation: operationTick,
	})

	result, err := c.tick(ctx)

	status := shell.StatusFromError(err)
	duration := time.Since(start)
	labels := shell.BuildOperationLabels(operationTick, status)

	shell.RecordDuration(ctx, c.metricsCollector, shell.TickDurationMetric, duration, labels)
	shell.RecordValue(ctx, c.metricsCollector, shell.TickOverdueMetric, float64(result.OverdueTransitioned), labels)
	shell.RecordValue(ctx, c.metricsCollector, shell.TickExpiredMetric, float64(result.ExpiredReservations), labels)
	shell.FinishOperationSpan(c.tracingCollector, span, status, map[string]string{
		shell.LogAttrItemCount: itoa(result.ItemsSwept),
		shell.LogAttrOverdue:   itoa(result.OverdueTransitioned),
		shell.LogAttrExpired:   itoa(result.ExpiredReservations),
	})

	c.logInfo(ctx, shell.LogMsgTickCompleted,
		shell.LogAttrStatus, status,
		shell.LogAttrItemCount, result.ItemsSwept,
		shell.LogAttrOverdue, result.OverdueTransitioned,
		shell.LogAttrExpired, result.ExpiredReservations,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration))

	return result, err
}

func (c *Coordinator) tick(ctx context.Context) (TickResult, error) {
	candidates, err := c.sweepCandidates(ctx, c.clock.Now())
	if err != nil {
		return TickResult{}, err
	}

	var result TickResult
	var itemErrs []error

	for _, itemID := range candidates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, errors.Join(append(itemErrs, ctxErr)...)
		}

		decision, sweepErr := c.runOnItem(ctx, operationSweepItem, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
			return core.DecideSweep(state, core.SweepCommand{ItemID: itemID, At: at}, c.policy)
		})
		if errors.Is(sweepErr, ErrClosed) {
			return result, errors.Join(append(itemErrs, sweepErr)...)
		}

		if sweepErr != nil {
			c.logWarn(ctx, shell.LogMsgTickItemFailed, shell.LogAttrItemID, itemID, shell.LogAttrError, sweepErr.Error())
			itemErrs = append(itemErrs, sweepErr)

			continue
		}

		result.ItemsSwept++
		result.OverdueTransitioned += decision.CountEvents(core.LoanMarkedOverdueEventType)
		result.ExpiredReservations += decision.CountEvents(core.ReservationExpiredEventType)
	}

	return result, errors.Join(itemErrs...)
}

type openLoan struct {
	itemID  core.ItemIDString
	dueDate time.Time
	overdue bool
}

type openOffer struct {
	itemID    core.ItemIDString
	expiresAt time.Time
}

// sweepCandidates returns, sorted, the items with a borrowed loan past due or an offer past its hold window.
// The scan tolerates replica lag: each item is re-read with strong consistency before anything is decided.
// It reads every loan and offer lifecycle event of every item, so its cost grows with total history.
func (c *Coordinator) sweepCandidates(ctx context.Context, at time.Time) ([]core.ItemIDString, error) {
	storableEvents, _, err := c.eventStore.Query(eventstore.WithEventualConsistency(ctx), sweepCandidatesFilter())
	if err != nil {
		return nil, err
	}

	events, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, err
	}

	loans := make(map[core.LoanIDString]*openLoan)
	offers := make(map[core.ReservationIDString]openOffer)

	for _, event := range events {
		switch e := event.(type) {
		case core.LoanCreated:
			loans[e.LoanID] = &openLoan{itemID: e.ItemID, dueDate: e.DueDate}
		case core.LoanMarkedOverdue:
			if loan, ok := loans[e.LoanID]; ok {
				loan.overdue = true
			}
		case core.LoanReturned:
			delete(loans, e.LoanID)
		case core.LoanMarkedLost:
			delete(loans, e.LoanID)
		case core.ReservationOffered:
			offers[e.ReservationID] = openOffer{itemID: e.ItemID, expiresAt: e.ExpiresAt}
		case core.ReservationFulfilled:
			delete(offers, e.ReservationID)
		case core.ReservationExpired:
			delete(offers, e.ReservationID)
		case core.ReservationCancelled:
			delete(offers, e.ReservationID)
		}
	}

	due := make(map[core.ItemIDString]struct{})

	for _, loan := range loans {
		if !loan.overdue && loan.dueDate.Before(at) {
			due[loan.itemID] = struct{}{}
		}
	}

	for _, offer := range offers {
		if offer.expiresAt.Before(at) {
			due[offer.itemID] = struct{}{}
		}
	}

	candidates := make([]core.ItemIDString, 0, len(due))
	for itemID := range due {
		candidates = append(candidates, itemID)
	}
	slices.Sort(candidates)

	return candidates, nil
}
