// Package circulation is the façade of the circulation engine: borrowing, returns, the reservation queue,
// fines and the periodic sweep, for items whose copy counts are announced by a catalog.
//
// Every operation runs the same workflow on exactly one item:
// query the item's event stream, project it into a core.ItemState, decide with a pure core function,
// and append the resulting events conditionally on the stream not having moved. The per-item critical section
// is a striped mutex acquired with TryLock, retried with exponential backoff together with append conflicts.
//
// Offer notifications are dispatched after the append has committed and never roll it back.
package circulation
