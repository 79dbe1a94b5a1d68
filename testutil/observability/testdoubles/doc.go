// Package testdoubles provides spies for the observability interfaces of the eventstore and the coordinator.
//
//   - MetricsCollectorSpy captures durations, counters and values with their labels
//   - TracingCollectorSpy captures spans with start and end attributes
//   - ContextualLoggerSpy captures log calls per level
//
// All spies are safe for concurrent use, since coordinator tests drive them from many goroutines.
package testdoubles
