// ABOUTME: HTTP API handlers for the chat endpoints.
// ABOUTME: Translates JSON requests into chat service calls and maps errors to statuses.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nupal/chat-gateway/internal/auth"
	"github.com/nupal/chat-gateway/internal/chat"
	"github.com/nupal/chat-gateway/internal/store"
)

// SendRequest is the JSON request body for POST /api/chat/send.
type SendRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text"`
}

// MessageResponse is the JSON representation of a stored message.
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// ConversationResponse is the JSON representation of a conversation.
type ConversationResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Pinned         bool   `json:"pinned"`
	CreatedAt      string `json:"created_at"`
	LastActivityAt string `json:"last_activity_at"`
}

// SendResponse is the JSON response for POST /api/chat/send.
type SendResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	UserMessage  MessageResponse      `json:"user_message"`
	AgentMessage MessageResponse      `json:"agent_message"`
}

// ListConversationsResponse is the JSON response for GET /api/chat/conversations.
type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// ListMessagesResponse is the JSON response for GET /api/chat/conversations/{id}/messages.
type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// PinRequest is the JSON request body for PATCH /api/chat/conversations/{id}/pin.
type PinRequest struct {
	Pinned bool `json:"pinned"`
}

// TitleRequest is the JSON request body for PATCH /api/chat/conversations/{id}/title.
type TitleRequest struct {
	Title string `json:"title"`
}

func conversationToResponse(c *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:             c.ID,
		Title:          c.Title,
		Pinned:         c.Pinned,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339Nano),
		LastActivityAt: c.LastActivityAt.Format(time.RFC3339Nano),
	}
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339Nano),
	}
}

// writeJSON writes a JSON response body with the given status.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response with a stable error code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// writeChatError maps chat service errors onto HTTP statuses with stable
// error codes. Detail stays in the server log, not the wire.
func (g *Gateway) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		g.sendJSONError(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, chat.ErrNotFound):
		g.sendJSONError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, chat.ErrForbidden):
		g.sendJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, chat.ErrUpstreamUnavailable):
		g.sendJSONError(w, http.StatusBadGateway, "upstream_unavailable")
	case errors.Is(err, chat.ErrUpstreamRejected):
		g.sendJSONError(w, http.StatusBadGateway, "upstream_rejected")
	case errors.Is(err, chat.ErrUpstreamPersistence):
		g.sendJSONError(w, http.StatusInternalServerError, "upstream_persistence_error")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the agent deadline tripped before classification.
		g.sendJSONError(w, http.StatusGatewayTimeout, "timeout")
	default:
		g.logger.Error("unhandled chat error", "error", err, "path", r.URL.Path)
		g.sendJSONError(w, http.StatusInternalServerError, "server_error")
	}
}

// requireIdentity extracts the authenticated identity or writes a 401.
// The auth middleware always attaches one, so a miss means a wiring bug.
func (g *Gateway) requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		g.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return identity, true
}

// parseSendRequest parses and validates a SendRequest from the given reader.
func parseSendRequest(r io.Reader) (*SendRequest, error) {
	var req SendRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("text is required")
	}
	return &req, nil
}

// handleSend handles POST /api/chat/send requests.
func (g *Gateway) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := g.requireIdentity(w, r)
	if !ok {
		return
	}

	req, err := parseSendRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	// Bound the whole send pipeline (agent call included) per request.
	ctx, cancel := context.WithTimeout(r.Context(), g.agentTimeout)
	defer cancel()

	result, err := g.chat.Send(ctx, identity.UserID, &chat.SendRequest{
		ConversationID: req.ConversationID,
		Text:           req.Text,
	})
	if err != nil {
		g.writeChatError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, SendResponse{
		Conversation: conversationToResponse(result.Conversation),
		UserMessage:  messageToResponse(result.UserMessage),
		AgentMessage: messageToResponse(result.AgentMessage),
	})
}

// handleListConversations handles GET /api/chat/conversations requests.
func (g *Gateway) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity, ok := g.requireIdentity(w, r)
	if !ok {
		return
	}

	conversations, err := g.chat.ListConversations(r.Context(), identity.UserID)
	if err != nil {
		g.writeChatError(w, r, err)
		return
	}

	resp := ListConversationsResponse{Conversations: make([]ConversationResponse, 0, len(conversations))}
	for _, c := range conversations {
		resp.Conversations = append(resp.Conversations, conversationToResponse(c))
	}
	g.writeJSON(w, http.StatusOK, resp)
}

// handleConversationRoutes dispatches /api/chat/conversations/{id} and its
// subresources: /messages, /pin, /title.
func (g *Gateway) handleConversationRoutes(w http.ResponseWriter, r *http.Request) {
	identity, ok := g.requireIdentity(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/chat/conversations/")
	parts := strings.SplitN(rest, "/", 2)
	conversationID := parts[0]
	if conversationID == "" {
		g.sendJSONError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		g.handleDeleteConversation(w, r, identity, conversationID)
	case "messages":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		g.handleListMessages(w, r, identity, conversationID)
	case "pin":
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		g.handlePin(w, r, identity, conversationID)
	case "title":
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		g.handleTitle(w, r, identity, conversationID)
	default:
		g.sendJSONError(w, http.StatusNotFound, "not_found")
	}
}

// handleListMessages handles GET /api/chat/conversations/{id}/messages.
func (g *Gateway) handleListMessages(w http.ResponseWriter, r *http.Request, identity *auth.Identity, conversationID string) {
	messages, err := g.chat.GetMessages(r.Context(), identity.UserID, conversationID)
	if err != nil {
		g.writeChatError(w, r, err)
		return
	}

	resp := ListMessagesResponse{Messages: make([]MessageResponse, 0, len(messages))}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, messageToResponse(m))
	}
	g.writeJSON(w, http.StatusOK, resp)
}

// handleDeleteConversation handles DELETE /api/chat/conversations/{id}.
func (g *Gateway) handleDeleteConversation(w http.ResponseWriter, r *http.Request, identity *auth.Identity, conversationID string) {
	if err := g.chat.DeleteConversation(r.Context(), identity.UserID, conversationID); err != nil {
		g.writeChatError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePin handles PATCH /api/chat/conversations/{id}/pin.
func (g *Gateway) handlePin(w http.ResponseWriter, r *http.Request, identity *auth.Identity, conversationID string) {
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	if err := g.chat.TogglePin(r.Context(), identity.UserID, conversationID, req.Pinned); err != nil {
		g.writeChatError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTitle handles PATCH /api/chat/conversations/{id}/title.
func (g *Gateway) handleTitle(w http.ResponseWriter, r *http.Request, identity *auth.Identity, conversationID string) {
	var req TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	if err := g.chat.Rename(r.Context(), identity.UserID, conversationID, req.Title); err != nil {
		g.writeChatError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
