package core

// Ledger is the boundary to the deterministic execution engine. The
// environment worker is the sole caller; implementations need no internal
// locking on that account.
//
// Execute must be deterministic for identical (state, operation) pairs.
// A logical failure (e.g. a reverted operation) is reported as an
// ExecutionResult with Failure set and a nil error. A non-nil error means
// the engine is unrecoverably broken: the environment worker terminates and
// all outstanding and subsequent submissions fail with
// ErrEnvironmentUnavailable.
type Ledger interface {
	Execute(op Operation) (ExecutionResult, error)
}
