// Package chat is the conversational session orchestrator.
//
// # Overview
//
// The Service coordinates identity, persistence, and the external agent call
// while enforcing ownership and producing a stable error taxonomy. It sits
// between the HTTP transport and three leaf collaborators:
//
//   - store.ConversationStore: conversation records
//   - store.MessageStore: append-only message history
//   - agent.Router: the external reasoning agent
//
// # Send Pipeline
//
// One send runs a strict side-effect sequence:
//
//  1. Validate the text (non-empty after trimming)
//  2. Resolve the conversation (fetch + ownership check, or create)
//  3. Append the user message — durable BEFORE the agent is contacted
//  4. Route context + new message to the agent
//  5. Append the agent reply, then touch the conversation
//
// Ordering user-message durability before the external call is the key
// correctness property: no user input is silently dropped even if the network
// call fails. The acceptable cost is an occasional user message with no
// matching reply.
//
// # Lifecycle Operations
//
// List, GetMessages, Delete, TogglePin, and Rename share one ownership
// prelude: fetch the conversation (ErrNotFound if absent), verify the caller
// owns it (ErrForbidden otherwise). Only then do they touch state. Message
// retrieval runs the same prelude as the mutating operations.
//
// # Error Taxonomy
//
// ErrInvalidInput, ErrNotFound, ErrForbidden, ErrUpstreamUnavailable,
// ErrUpstreamRejected, ErrUpstreamPersistence. All are terminal outcomes of a
// single invocation; the orchestrator holds no retry loop and no backoff.
//
// # Concurrency
//
// The Service holds no cross-request state. Concurrent sends to the same
// conversation are not serialized: appends interleave in store order and the
// activity timestamp is last-write-wins (monotonic via the store's touch).
package chat
