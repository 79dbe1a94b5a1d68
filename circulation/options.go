package circulation

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
)

var (
	// ErrNilClock is returned by WithClock for a nil clock.
	ErrNilClock = errors.New("nil clock supplied")

	// ErrNilNotifier is returned by WithNotifier for a nil notifier.
	ErrNilNotifier = errors.New("nil notifier supplied")

	// ErrNilIDGenerator is returned by WithIDGenerator for a nil generator.
	ErrNilIDGenerator = errors.New("nil id generator supplied")

	// ErrInvalidNotifyTimeout is returned by WithNotifyTimeout for a non-positive timeout.
	ErrInvalidNotifyTimeout = errors.New("notify timeout must be positive")
)

// Option defines a functional option for configuring a Coordinator.
type Option func(*Coordinator) error

// WithPolicy replaces the default circulation policy. The policy is validated.
func WithPolicy(policy core.Policy) Option {
	return func(c *Coordinator) error {
		if err := policy.Validate(); err != nil {
			return err
		}

		c.policy = policy

		return nil
	}
}

// WithClock sets the time source, e.g. a clock.Manual in tests.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) error {
		if clock == nil {
			return ErrNilClock
		}

		c.clock = clock

		return nil
	}
}

// WithNotifier sets the notifier for offers.
func WithNotifier(notifier Notifier) Option {
	return func(c *Coordinator) error {
		if notifier == nil {
			return ErrNilNotifier
		}

		c.notifier = notifier

		return nil
	}
}

// WithNotifyTimeout bounds each Notify call.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) error {
		if timeout <= 0 {
			return ErrInvalidNotifyTimeout
		}

		c.notifyTimeout = timeout

		return nil
	}
}

// WithSynchronousNotifications makes operations deliver their notifications before returning.
func WithSynchronousNotifications() Option {
	return func(c *Coordinator) error {
		c.syncNotifications = true
		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for all operations.
func WithRetryOptions(options ...shell.RetryOption) Option {
	return func(c *Coordinator) error {
		c.retryOptions = options
		return nil
	}
}

// WithIDGenerator replaces the UUIDv7 generator for loan and reservation ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) error {
		if newID == nil {
			return ErrNilIDGenerator
		}

		c.newID = newID

		return nil
	}
}

// WithLogger sets the logger for the Coordinator.
func WithLogger(logger shell.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Coordinator. It wins over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(c *Coordinator) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Coordinator.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(c *Coordinator) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Coordinator.
func WithTracing(collector shell.TracingCollector) Option {
	return func(c *Coordinator) error {
		c.tracingCollector = collector
		return nil
	}
}
