package eventstore

import (
	"errors"
)

var (
	ErrEmptyEventsTableName   = errors.New("empty events table name supplied")
	ErrInvalidEventsTableName = errors.New("events table name is not a valid identifier")
	ErrNilDatabaseConnection  = errors.New("nil database connection supplied")

	// ErrConcurrencyConflict is returned by Append when the "dynamic event stream" selected by the filter
	// has moved beyond the expected max sequence number since it was queried.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	ErrBuildingQueryFailed         = errors.New("building the query failed")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning a db row failed")
	ErrBuildingStorableEventFailed = errors.New("building a storable event failed")
	ErrAppendingEventFailed        = errors.New("appending the event(s) failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
	ErrEnsuringSchemaFailed        = errors.New("ensuring the events schema failed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
