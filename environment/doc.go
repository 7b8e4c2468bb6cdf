// Package environment implements the execution environment: the single
// owner of the mutable ledger and the sole component allowed to mutate it.
//
// All mutation flows through Submit, which enqueues the operation on an
// unbounded single-consumer queue and blocks the caller until the reply
// arrives. A dedicated worker goroutine drains the queue serially:
//
//	dequeue -> execute against the ledger -> broadcast resulting events
//	to all subscribers -> deliver the ExecutionResult to the submitter
//
// This induces one global total order of ledger mutations equal to the
// FIFO enqueue order, and guarantees that the broadcast for operation k
// completes (is enqueued at every subscriber) before operation k+1 begins.
//
// An unrecoverable engine failure terminates the worker; every outstanding
// and subsequent Submit observes core.ErrEnvironmentUnavailable rather than
// hanging. Logical failures (e.g. a reverted operation) are ordinary
// ExecutionResult values and do not affect the worker.
package environment
