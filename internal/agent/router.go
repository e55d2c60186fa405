// ABOUTME: Agent client contract consumed by the chat orchestrator
// ABOUTME: Defines the Route call and the transient/rejected failure split

package agent

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a transient failure reaching the agent: network
// errors, timeouts, rate limits, server-side 5xx. Safe to retry.
var ErrUnavailable = errors.New("agent unavailable")

// ErrRejected indicates the agent explicitly refused or errored the request:
// bad credentials, content policy, malformed request. Not retried.
var ErrRejected = errors.New("agent rejected request")

// Turn is one prior exchange in the conversation context.
type Turn struct {
	Role    string // "user" or "agent"
	Content string
}

// RouteRequest carries the accumulated conversation context plus the new
// user message.
type RouteRequest struct {
	History []Turn
	Text    string
}

// Reply is the agent's final text answer.
type Reply struct {
	Text string
}

// Router sends a routed request to the agent and returns its reply.
//
// Implementations classify failures into ErrUnavailable or ErrRejected
// (matchable with errors.Is) and pass the caller's context deadline through
// verbatim — retries, if any, are the implementation's internal concern.
// Context cancellation errors propagate unclassified.
type Router interface {
	Route(ctx context.Context, req *RouteRequest) (*Reply, error)
}
