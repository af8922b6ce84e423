/*
Package domain contains the flow definition model and the runtime snapshot
types of the Arbor engine.

Definitions are immutable graphs built once and shared by every execution.
Snapshots are the per-conversation state persisted between requests. The
package holds no I/O; persistence, transport and rendering live in adapters.

# Key Entities

  - Flow: a graph of States with a start state, variables, input/output mappers and global transitions.
  - State: one node of the graph. Its Kind selects view, action, subflow, decision or end behavior.
  - Transition: matches an event, runs its actions and resolves a target state.
  - Session: one activation of a Flow on an Execution's call stack, owning flow and flash scopes.
  - Execution: the call stack of Sessions plus the conversation scope they share.
  - Listener: observer of the sixteen lifecycle points of a request.
*/
package domain
