package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
)

// RunSweeps calls Tick every interval until ctx is done. Tick failures are logged and the loop goes on.
func (c *Coordinator) RunSweeps(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidSweepInterval
	}

	c.logInfo(ctx, shell.LogMsgSweeperStarted, shell.LogAttrInterval, interval.String())

	for {
		select {
		case <-ctx.Done():
			c.logInfo(ctx, shell.LogMsgSweeperStopped)
			return nil

		case <-c.clock.After(interval):
			if _, err := c.Tick(ctx); err != nil && ctx.Err() == nil {
				c.logWarn(ctx, shell.LogMsgOperationFailed, shell.LogAttrOperation, operationTick, shell.LogAttrError, err.Error())
			}

			if c.isClosed() {
				c.logInfo(ctx, shell.LogMsgSweeperStopped)
				return ErrClosed
			}
		}
	}
}
