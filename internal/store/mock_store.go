// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation // keyed by conversation ID
	messages      map[string][]*Message    // keyed by conversation ID, insertion order

	// Error injection for failure-path tests. When set, the corresponding
	// operation returns the error instead of mutating state. AppendErrRole
	// limits the append failure to messages with that role ("" fails all).
	CreateErr     error
	AppendErr     error
	AppendErrRole string
	TouchErr      error
	PingErr       error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]*Message),
	}
}

// CreateConversation stores a new conversation.
func (m *MockStore) CreateConversation(ctx context.Context, convo *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}

	if _, ok := m.conversations[convo.ID]; ok {
		return ErrDuplicateConversation
	}

	// Make a copy to avoid external modification
	c := *convo
	m.conversations[c.ID] = &c
	return nil
}

// GetConversation retrieves a conversation by ID.
func (m *MockStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *c
	return &result, nil
}

// TouchConversation advances the last-activity timestamp, never backwards.
func (m *MockStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TouchErr != nil {
		return m.TouchErr
	}

	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}

	if at.After(c.LastActivityAt) {
		c.LastActivityAt = at
	}
	return nil
}

// ListConversationsByOwner returns the owner's conversations, most recently
// active first.
func (m *MockStore) ListConversationsByOwner(ctx context.Context, ownerID string, limit int) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Conversation
	for _, c := range m.conversations {
		if c.OwnerID != ownerID {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastActivityAt.Equal(result[j].LastActivityAt) {
			return result[i].LastActivityAt.After(result[j].LastActivityAt)
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateConversationTitle sets a conversation's title.
func (m *MockStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Title = title
	return nil
}

// UpdateConversationPinned sets a conversation's pinned flag.
func (m *MockStore) UpdateConversationPinned(ctx context.Context, id string, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Pinned = pinned
	return nil
}

// DeleteConversation removes the conversation and its messages.
func (m *MockStore) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

// AppendMessage stores a message in insertion order.
func (m *MockStore) AppendMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil && (m.AppendErrRole == "" || m.AppendErrRole == msg.Role) {
		return m.AppendErr
	}

	copied := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &copied)
	return nil
}

// ListMessages returns messages in the order they were appended.
func (m *MockStore) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	result := make([]*Message, len(msgs))
	for i, msg := range msgs {
		copied := *msg
		result[i] = &copied
	}
	return result, nil
}

// Ping succeeds unless PingErr is set.
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Close is a no-op for the in-memory store.
func (m *MockStore) Close() error {
	return nil
}
