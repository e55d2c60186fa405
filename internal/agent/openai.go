// ABOUTME: OpenAI-compatible Router implementation backed by go-openai
// ABOUTME: Classifies API and transport failures into the Router error taxonomy

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// Config holds the OpenAI-compatible endpoint configuration.
type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	SystemPrompt    string
	MaxHistoryTurns int // prior turns sent as context; 0 uses the default
}

const (
	defaultModel           = "gpt-4o-mini"
	defaultMaxHistoryTurns = 20
)

// OpenAIRouter implements Router against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIRouter struct {
	client          *openai.Client
	model           string
	systemPrompt    string
	maxHistoryTurns int
	logger          *slog.Logger
}

// NewOpenAIRouter creates a router for the configured endpoint.
func NewOpenAIRouter(cfg Config, logger *slog.Logger) *OpenAIRouter {
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	maxTurns := cfg.MaxHistoryTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxHistoryTurns
	}

	return &OpenAIRouter{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           model,
		systemPrompt:    cfg.SystemPrompt,
		maxHistoryTurns: maxTurns,
		logger:          logger.With("component", "agent"),
	}
}

// Route sends the conversation context and new message to the agent and
// returns its reply.
func (r *OpenAIRouter) Route(ctx context.Context, req *RouteRequest) (*Reply, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: r.buildMessages(req),
	})
	if err != nil {
		return nil, r.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty chat response", ErrRejected)
	}

	return &Reply{Text: resp.Choices[0].Message.Content}, nil
}

// buildMessages assembles system prompt, capped history, and the new message.
func (r *OpenAIRouter) buildMessages(req *RouteRequest) []openai.ChatCompletionMessage {
	history := req.History
	if len(history) > r.maxHistoryTurns {
		history = history[len(history)-r.maxHistoryTurns:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if r.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.systemPrompt,
		})
	}

	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "agent" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
}

// classify maps a go-openai error onto the Router taxonomy. API errors with
// retryable status codes and all transport-level failures are transient;
// every other API error is an explicit rejection. Context cancellation
// passes through untouched.
func (r *OpenAIRouter) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		// No HTTP response at all — the transport failed
		r.logger.Warn("agent unreachable", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case status == 408, status == 429, status >= 500:
		r.logger.Warn("agent transiently unavailable", "status", status, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		r.logger.Warn("agent rejected request", "status", status, "error", err)
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
}
