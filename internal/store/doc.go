// Package store provides persistent storage for the chat gateway using SQLite.
//
// # Architecture
//
// Two narrow contracts cover the gateway's persistence needs:
//
//   - ConversationStore: conversation records (create, fetch, touch, list,
//     rename, pin, delete)
//   - MessageStore: append-only message history per conversation
//
// SQLiteStore implements both in a single struct; MockStore is the in-memory
// equivalent for unit tests.
//
// # Data Models
//
//   - Conversation: owned container with title, pinned flag, and a monotonic
//     last-activity timestamp
//   - Message: one immutable turn, role "user" or "agent"
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Deleting a conversation cascades to its messages through the foreign key.
// Timestamps are stored as RFC3339 UTC text; that format sorts
// lexicographically in chronological order, which TouchConversation relies on
// to stay monotonic.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist (also returned by
//     update/delete when the target row is missing)
//   - ErrDuplicateConversation: conversation id collision on create
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(":memory:") or a
// t.TempDir() path for integration tests against real SQLite.
package store
