// ABOUTME: Stable error taxonomy surfaced by the chat orchestrator
// ABOUTME: Transport maps these onto status codes; detail stays in logs

package chat

import "errors"

// Orchestrator-level failure kinds. Every operation terminates in success or
// exactly one of these; none is fatal to the process. Collaborator errors are
// wrapped onto a kind so errors.Is matches while the underlying detail stays
// available for logging.
var (
	// ErrInvalidInput: empty/whitespace message text or title. No side effects.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound: the referenced conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrForbidden: the caller is not the conversation's owner.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstreamUnavailable: transient agent failure. The user message is
	// already durable; the caller may retry the send with the same
	// conversation id.
	ErrUpstreamUnavailable = errors.New("agent upstream unavailable")

	// ErrUpstreamRejected: the agent explicitly refused the request. The user
	// message is already durable; not retried automatically.
	ErrUpstreamRejected = errors.New("agent upstream rejected request")

	// ErrUpstreamPersistence: the agent replied but persisting the reply
	// failed. The user message stays; the reply text goes to the log sink.
	ErrUpstreamPersistence = errors.New("persisting agent reply failed")
)
