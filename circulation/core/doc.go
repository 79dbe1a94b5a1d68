// Package core is the functional core of the circulation engine.
//
// It contains the domain events, the four accounting components (AvailabilityTracker, LoanLedger,
// ReservationQueue, FineCalculator), the ItemState projection that folds an item's event history
// through them, and one pure Decide function per operation.
//
// Nothing in this package performs I/O or reads the clock: every command carries the instant it
// is decided at, and every id it needs is generated by the caller.
package core
