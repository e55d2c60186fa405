// ABOUTME: Store interfaces and data types for chat-gateway persistence
// ABOUTME: Defines Conversation, Message structs and the store contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateConversation is returned when trying to create a conversation
// with an id that already exists
var ErrDuplicateConversation = errors.New("conversation already exists")

// Role constants for message authorship
const (
	RoleUser  = "user"  // message written by the owning user
	RoleAgent = "agent" // reply produced by the agent
)

// Conversation is a durable, owned container for an ordered sequence of messages.
type Conversation struct {
	ID             string
	OwnerID        string
	Title          string
	Pinned         bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Message is one immutable turn in a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" or "agent"
	Content        string
	CreatedAt      time.Time
}

// ConversationStore defines conversation-record persistence.
type ConversationStore interface {
	CreateConversation(ctx context.Context, convo *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// TouchConversation advances last_activity_at to at. The timestamp is
	// monotonic non-decreasing: an older at never moves it backwards.
	TouchConversation(ctx context.Context, id string, at time.Time) error

	// ListConversationsByOwner returns the owner's conversations ordered by
	// last activity, most recent first. limit <= 0 means no limit.
	ListConversationsByOwner(ctx context.Context, ownerID string, limit int) ([]*Conversation, error)

	UpdateConversationTitle(ctx context.Context, id, title string) error
	UpdateConversationPinned(ctx context.Context, id string, pinned bool) error

	// DeleteConversation removes a conversation and cascades to its messages.
	DeleteConversation(ctx context.Context, id string) error
}

// MessageStore defines message persistence. Messages are append-only:
// they are never edited or reordered after creation.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error

	// ListMessages returns all messages of a conversation in creation order.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
}

// Store combines both persistence contracts. SQLiteStore and MockStore
// implement it in full.
type Store interface {
	ConversationStore
	MessageStore

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
