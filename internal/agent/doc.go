// Package agent provides the client for the external reasoning agent.
//
// # Overview
//
// The chat orchestrator hands the agent an accumulated conversation context
// plus the new user message and consumes a single final text reply. The
// Router interface is the whole contract:
//
//	reply, err := router.Route(ctx, &agent.RouteRequest{History: turns, Text: text})
//
// # Failure Taxonomy
//
// The orchestrator needs exactly one bit of classification from a failed
// route: is it worth retrying?
//
//   - ErrUnavailable: transport errors, timeouts, 408/429/5xx — transient,
//     the caller may retry with the same conversation id
//   - ErrRejected: any other API-level error (auth, content policy, bad
//     request) — not retried automatically
//
// Context cancellation propagates unclassified so callers can distinguish
// their own deadline from an upstream fault.
//
// # OpenAIRouter
//
// OpenAIRouter talks to any OpenAI-compatible chat-completions endpoint via
// go-openai. It sends an optional system prompt, the last N history turns,
// and the new message. The caller's deadline passes through verbatim; there
// is no internal retry loop.
package agent
