// Package auth provides JWT verification and identity propagation for the
// chat API.
//
// Tokens are HS256-signed JWTs whose "sub" claim carries the user id. The
// HTTP middleware validates the Authorization bearer token and attaches an
// Identity to the request context:
//
//	mux.Handle("/api/chat/send", auth.Middleware(verifier)(handler))
//
// Handlers read the caller back with auth.FromContext(ctx). Token issuance
// lives in the chat-gateway CLI (the "token" subcommand); this package only
// verifies.
package auth
