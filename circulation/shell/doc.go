// Package shell is the imperative shell around circulation/core.
//
// It maps domain events to and from eventstore.StorableEvent, builds event metadata,
// retries item operations with exponential backoff on concurrency conflicts,
// and holds the metric, span and log vocabulary shared by the coordinator and the daemon.
package shell
