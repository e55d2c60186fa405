// ABOUTME: Tests for MockStore behavior parity with the SQLite store
// ABOUTME: Keeps the in-memory test double honest about ordering and errors

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_ConversationRoundtrip(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	convo := testConversation("c1", "student-1")
	require.NoError(t, m.CreateConversation(ctx, convo))

	got, err := m.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", got.OwnerID)

	// Mutating the returned copy must not affect stored state
	got.Title = "mutated"
	again, err := m.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Physics questions", again.Title)
}

func TestMockStore_NotFoundParity(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	_, err := m.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.TouchConversation(ctx, "missing", time.Now()), ErrNotFound)
	assert.ErrorIs(t, m.UpdateConversationTitle(ctx, "missing", "x"), ErrNotFound)
	assert.ErrorIs(t, m.UpdateConversationPinned(ctx, "missing", true), ErrNotFound)
	assert.ErrorIs(t, m.DeleteConversation(ctx, "missing"), ErrNotFound)
}

func TestMockStore_ListOrdering(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"old", "mid", "new"} {
		convo := testConversation(id, "student-1")
		convo.LastActivityAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, m.CreateConversation(ctx, convo))
	}

	got, err := m.ListConversationsByOwner(ctx, "student-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
}

func TestMockStore_MessagesInsertionOrder(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateConversation(ctx, testConversation("c1", "student-1")))

	now := time.Now().UTC()
	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, m.AppendMessage(ctx, &Message{
			ID:             id,
			ConversationID: "c1",
			Role:           RoleUser,
			Content:        id,
			CreatedAt:      now,
		}))
	}

	msgs, err := m.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m3", msgs[2].ID)
}

func TestMockStore_AppendErrRole(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	m.AppendErr = assert.AnError
	m.AppendErrRole = RoleAgent

	require.NoError(t, m.AppendMessage(ctx, &Message{ID: "u1", ConversationID: "c1", Role: RoleUser}))
	assert.ErrorIs(t, m.AppendMessage(ctx, &Message{ID: "a1", ConversationID: "c1", Role: RoleAgent}), assert.AnError)
}
