// ABOUTME: Tests for the OpenAI-backed Router
// ABOUTME: Verifies failure classification and request assembly against a stub endpoint

package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubEndpoint runs an OpenAI-shaped chat-completions server that replies
// via the given handler and points a router at it.
func newStubEndpoint(t *testing.T, handler http.HandlerFunc) *OpenAIRouter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIRouter(Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Model:   "test-model",
	}, nil)
}

func completionReply(text string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
	}
}

func apiError(code int, msg string) (int, map[string]any) {
	return code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "test_error",
		},
	}
}

func TestOpenAIRouter_Route(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionReply("Hi there"))
	})
	router.systemPrompt = "You are a tutor."

	reply, err := router.Route(context.Background(), &RouteRequest{
		History: []Turn{
			{Role: "user", Content: "earlier question"},
			{Role: "agent", Content: "earlier answer"},
		},
		Text: "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply.Text)

	require.Len(t, gotBody.Messages, 4)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "assistant", gotBody.Messages[2].Role)
	assert.Equal(t, "Hello", gotBody.Messages[3].Content)
}

func TestOpenAIRouter_HistoryCap(t *testing.T) {
	var messageCount int
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		messageCount = len(body.Messages)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionReply("ok"))
	})
	router.maxHistoryTurns = 2

	history := make([]Turn, 10)
	for i := range history {
		history[i] = Turn{Role: "user", Content: "turn"}
	}

	_, err := router.Route(context.Background(), &RouteRequest{History: history, Text: "latest"})
	require.NoError(t, err)

	// 2 capped history turns + new message, no system prompt configured
	assert.Equal(t, 3, messageCount)
}

func TestOpenAIRouter_ClassifiesServerErrorAsUnavailable(t *testing.T) {
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		code, body := apiError(http.StatusInternalServerError, "boom")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	})

	_, err := router.Route(context.Background(), &RouteRequest{Text: "Hello"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIRouter_ClassifiesRateLimitAsUnavailable(t *testing.T) {
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		code, body := apiError(http.StatusTooManyRequests, "slow down")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	})

	_, err := router.Route(context.Background(), &RouteRequest{Text: "Hello"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIRouter_ClassifiesClientErrorAsRejected(t *testing.T) {
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		code, body := apiError(http.StatusBadRequest, "policy refusal")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	})

	_, err := router.Route(context.Background(), &RouteRequest{Text: "Hello"})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestOpenAIRouter_ClassifiesConnectionFailureAsUnavailable(t *testing.T) {
	// Closed server: connection refused, no HTTP response
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	router := NewOpenAIRouter(Config{BaseURL: url + "/v1", APIKey: "k"}, nil)

	_, err := router.Route(context.Background(), &RouteRequest{Text: "Hello"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIRouter_EmptyChoicesRejected(t *testing.T) {
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []any{},
		})
	})

	_, err := router.Route(context.Background(), &RouteRequest{Text: "Hello"})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestOpenAIRouter_CancellationPropagates(t *testing.T) {
	router := newStubEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel the request context; otherwise Done never fires and
		// the cleanup's srv.Close blocks forever.
		io.ReadAll(r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := router.Route(ctx, &RouteRequest{Text: "Hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrRejected)
}
