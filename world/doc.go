// Package world is the top-level owner of the execution environment and
// the agent set. A World is populated with agents before Run, either
// programmatically via AddAgent or declaratively via BuildFromConfig, and
// then run once: every agent's state machine and the environment worker
// start concurrently, and Run resolves when every agent has reached its
// terminal state.
//
// Cancellation is cooperative and scoped: cancelling the run context stops
// agents at their suspension points and lets in-flight submissions complete
// before the environment worker quiesces. Agents that already halted remain
// observable afterwards.
package world
