// Package core provides the foundational domain types and contracts used by
// agentsim. It defines the core abstractions for:
//
//   - Operations (state-changing requests submitted to the ledger)
//   - ExecutionResults (per-operation outcomes with ordered event sequences)
//   - Events & Messages (the two inbound item kinds an agent reacts to)
//   - Behaviors (pluggable startup/process reaction logic)
//   - The Ledger boundary (the deterministic execution engine)
//   - Mailbox (the unbounded FIFO primitive backing queues and inboxes)
//
// The package intentionally keeps implementation concerns (the environment
// worker, the messager bus, world orchestration, concrete behaviors) out of
// scope, exposing small interfaces to enable custom engines and behaviors.
package core
