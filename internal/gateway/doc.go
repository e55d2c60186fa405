// Package gateway wires the chat-gateway components into a running HTTP
// server.
//
// # Responsibilities
//
// The Gateway owns the process lifecycle: it opens the SQLite store, builds
// the agent router and chat service, registers routes, and serves until its
// context is canceled, at which point it shuts down gracefully and closes
// the store.
//
// # Routes
//
//	GET    /health                                   liveness (no auth)
//	GET    /health/ready                             readiness, pings the store (no auth)
//	POST   /api/chat/send                            send a message, get the agent reply
//	GET    /api/chat/conversations                   list the caller's conversations
//	GET    /api/chat/conversations/{id}/messages     full transcript
//	DELETE /api/chat/conversations/{id}              delete a conversation
//	PATCH  /api/chat/conversations/{id}/pin          set the pinned flag
//	PATCH  /api/chat/conversations/{id}/title        rename
//
// All /api/chat routes require a Bearer JWT. Errors are returned as JSON
// bodies with a stable "error" code; diagnostic detail goes to the server
// log only.
package gateway
