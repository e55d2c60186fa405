// ABOUTME: Chat orchestrator: the send pipeline and conversation lifecycle operations
// ABOUTME: Record first, then act — the user message is durable before the agent is called

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/nupal/chat-gateway/internal/agent"
	"github.com/nupal/chat-gateway/internal/store"
)

// DefaultListLimit caps how many conversations ListConversations returns.
const DefaultListLimit = 20

// maxTitleRunes bounds titles derived from the first message.
const maxTitleRunes = 48

// defaultTitle is used when no usable title can be derived.
const defaultTitle = "New conversation"

// Service orchestrates sends and lifecycle operations over the stores and
// the agent router. It holds no cross-request state; all state lives in the
// stores, so a Service is safe for concurrent use.
type Service struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	router        agent.Router
	logger        *slog.Logger
}

// New creates a chat Service.
func New(conversations store.ConversationStore, messages store.MessageStore, router agent.Router, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		conversations: conversations,
		messages:      messages,
		router:        router,
		logger:        logger.With("component", "chat"),
	}
}

// SendRequest is one inbound user message. ConversationID empty means start
// a new conversation.
type SendRequest struct {
	ConversationID string
	Text           string
}

// SendResult is the outcome of a successful send.
type SendResult struct {
	Conversation *store.Conversation
	UserMessage  *store.Message
	AgentMessage *store.Message
}

// Send runs the message pipeline: resolve or create the conversation, persist
// the user message, route to the agent, persist the reply, touch the
// conversation.
//
// Key principle: record first, then act. The user message is saved BEFORE the
// agent is contacted, so a later agent failure never loses the user's input —
// at the cost of occasionally leaving a user message with no matching reply.
func (s *Service) Send(ctx context.Context, ownerID string, req *SendRequest) (*SendResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidInput)
	}

	convo, history, err := s.resolveConversation(ctx, ownerID, req.ConversationID, text)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: convo.ID,
		Role:           store.RoleUser,
		Content:        text,
		CreatedAt:      now,
	}
	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("recording user message: %w", err)
	}

	s.logger.Debug("user message recorded",
		"conversation_id", convo.ID,
		"message_id", userMsg.ID)

	// Cancelled before dispatch: abort without the network call. The user
	// message stays durable.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply, err := s.router.Route(ctx, &agent.RouteRequest{History: history, Text: text})
	if err != nil {
		return nil, s.classifyRouteError(convo.ID, err)
	}

	agentMsg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: convo.ID,
		Role:           store.RoleAgent,
		Content:        reply.Text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.AppendMessage(ctx, agentMsg); err != nil {
		// The reply would otherwise be lost; the log sink is its last stop.
		s.logger.Error("agent reply not persisted",
			"conversation_id", convo.ID,
			"error", err,
			"reply", reply.Text)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPersistence, err)
	}

	if err := s.conversations.TouchConversation(ctx, convo.ID, agentMsg.CreatedAt); err != nil {
		// The exchange itself is durable; a stale activity timestamp is not
		// worth failing the send over.
		s.logger.Warn("touch failed", "conversation_id", convo.ID, "error", err)
	} else {
		convo.LastActivityAt = agentMsg.CreatedAt
	}

	return &SendResult{
		Conversation: convo,
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
	}, nil
}

// ListConversations returns the caller's most recently active conversations.
func (s *Service) ListConversations(ctx context.Context, ownerID string) ([]*store.Conversation, error) {
	convos, err := s.conversations.ListConversationsByOwner(ctx, ownerID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return convos, nil
}

// GetMessages returns a conversation's messages in creation order. The
// caller must own the conversation.
func (s *Service) GetMessages(ctx context.Context, ownerID, conversationID string) ([]*store.Message, error) {
	if _, err := s.authorize(ctx, ownerID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// DeleteConversation removes a conversation and its messages. Deleting a
// conversation that does not exist yields ErrNotFound; delete is not
// idempotent.
func (s *Service) DeleteConversation(ctx context.Context, ownerID, conversationID string) error {
	if _, err := s.authorize(ctx, ownerID, conversationID); err != nil {
		return err
	}

	if err := s.conversations.DeleteConversation(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, conversationID)
		}
		return fmt.Errorf("deleting conversation: %w", err)
	}

	s.logger.Info("conversation deleted", "conversation_id", conversationID, "owner_id", ownerID)
	return nil
}

// TogglePin sets the pinned flag. Idempotent.
func (s *Service) TogglePin(ctx context.Context, ownerID, conversationID string, pinned bool) error {
	if _, err := s.authorize(ctx, ownerID, conversationID); err != nil {
		return err
	}

	if err := s.conversations.UpdateConversationPinned(ctx, conversationID, pinned); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, conversationID)
		}
		return fmt.Errorf("updating pin: %w", err)
	}
	return nil
}

// Rename sets the conversation title. Blank titles are rejected before any
// lookup, so an invalid rename has no side effects.
func (s *Service) Rename(ctx context.Context, ownerID, conversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidInput)
	}

	if _, err := s.authorize(ctx, ownerID, conversationID); err != nil {
		return err
	}

	if err := s.conversations.UpdateConversationTitle(ctx, conversationID, title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, conversationID)
		}
		return fmt.Errorf("updating title: %w", err)
	}
	return nil
}

// resolveConversation fetches and authorizes the target conversation, or
// creates a fresh one when no id was given. For an existing conversation it
// also loads the accumulated history for the agent's context.
func (s *Service) resolveConversation(ctx context.Context, ownerID, conversationID, text string) (*store.Conversation, []agent.Turn, error) {
	if conversationID != "" {
		convo, err := s.authorize(ctx, ownerID, conversationID)
		if err != nil {
			return nil, nil, err
		}

		msgs, err := s.messages.ListMessages(ctx, conversationID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading history: %w", err)
		}

		history := make([]agent.Turn, len(msgs))
		for i, msg := range msgs {
			history[i] = agent.Turn{Role: msg.Role, Content: msg.Content}
		}
		return convo, history, nil
	}

	now := time.Now().UTC()
	convo := &store.Conversation{
		ID:             shortuuid.New(),
		OwnerID:        ownerID,
		Title:          deriveTitle(text),
		Pinned:         false,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.conversations.CreateConversation(ctx, convo); err != nil {
		return nil, nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("conversation created", "conversation_id", convo.ID, "owner_id", ownerID)
	return convo, nil, nil
}

// authorize runs the ownership prelude shared by every conversation-scoped
// operation: fetch, then verify the caller owns it.
func (s *Service) authorize(ctx context.Context, ownerID, conversationID string) (*store.Conversation, error) {
	convo, err := s.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching conversation: %w", err)
	}

	if convo.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not the conversation owner", ErrForbidden)
	}

	return convo, nil
}

// classifyRouteError maps agent failures onto the upstream taxonomy. Context
// cancellation propagates untouched so no agent message is ever appended for
// a cancelled call.
func (s *Service) classifyRouteError(conversationID string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, agent.ErrRejected):
		s.logger.Warn("agent rejected send", "conversation_id", conversationID, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
	default:
		// agent.ErrUnavailable and anything unclassified: treat as transient
		s.logger.Warn("agent unavailable", "conversation_id", conversationID, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

// deriveTitle builds a conversation title from the first message text.
func deriveTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		return defaultTitle
	}

	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes]) + "…"
	}
	return title
}
