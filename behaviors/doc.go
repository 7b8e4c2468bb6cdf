// Package behaviors contains reference Behavior implementations for the
// token ledger engine, each selectable through the declarative registry:
//
//   - minter: submits one mint operation on startup, then halts
//   - watcher: listens for tagged ledger events and halts after a limit
//   - timed_messenger: message ping-pong with a bounded exchange count
//   - token_admin: serves mint and balance queries sent by peers
//   - token_requester: asks the admin for mints until a target is reached
//
// They double as executable documentation for writing behaviors: hold the
// handles you receive in Startup, return the messager stream (or a closed
// channel for fire-and-forget work), and keep Process side effects on the
// handles only.
package behaviors
