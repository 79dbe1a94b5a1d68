package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

// OnCatalogCopyCountChanged receives the catalog's total copy count for an item.
// The first call registers the item; added copies are offered to waiting users.
func (c *Coordinator) OnCatalogCopyCountChanged(ctx context.Context, itemID core.ItemIDString, newTotal int) (ItemSnapshot, error) {
	if itemID == "" {
		return ItemSnapshot{}, core.ErrEmptyID
	}

	decision, err := c.runOnItem(ctx, operationChangeCopyCount, itemID, func(state core.ItemState, at time.Time) core.DecisionResult {
		command := core.ChangeCopyCountCommand{ItemID: itemID, NewTotal: newTotal, At: at}
		return core.DecideCopyCountChange(state, command, c.policy)
	})
	if err != nil {
		return ItemSnapshot{}, err
	}

	return snapshotOf(decision.State), nil
}
