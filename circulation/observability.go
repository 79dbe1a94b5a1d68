package circulation

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
)

func (c *Coordinator) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.DebugContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Debug(msg, args...)
	}
}

func (c *Coordinator) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.InfoContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Info(msg, args...)
	}
}

func (c *Coordinator) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.WarnContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Warn(msg, args...)
	}
}

func (c *Coordinator) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{shell.LogAttrError, err.Error()}, args...)

	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case c.logger != nil:
		c.logger.Error(msg, allArgs...)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
