// ABOUTME: Gateway orchestrator that owns the HTTP server lifecycle
// ABOUTME: Wires store, agent router, chat service, and auth into one serve loop

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nupal/chat-gateway/internal/agent"
	"github.com/nupal/chat-gateway/internal/auth"
	"github.com/nupal/chat-gateway/internal/chat"
	"github.com/nupal/chat-gateway/internal/config"
	"github.com/nupal/chat-gateway/internal/store"
)

// Gateway coordinates the chat-gateway server components: the SQLite store,
// the agent router, the chat orchestrator, and the HTTP server that fronts
// them.
type Gateway struct {
	config     *config.Config
	store      store.Store
	chat       *chat.Service
	httpServer *http.Server
	logger     *slog.Logger

	// agentTimeout bounds one agent round-trip per send request
	agentTimeout time.Duration
}

// New creates a Gateway from configuration: opens the store, builds the
// agent router and chat service, and registers all HTTP routes.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	router := agent.NewOpenAIRouter(agent.Config{
		BaseURL:         cfg.Agent.BaseURL,
		APIKey:          cfg.Agent.APIKey,
		Model:           cfg.Agent.Model,
		SystemPrompt:    cfg.Agent.SystemPrompt,
		MaxHistoryTurns: cfg.Agent.MaxHistoryTurns,
	}, logger)

	chatSvc := chat.New(s, s, router, logger)
	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	gw := newWithDeps(cfg, s, chatSvc, verifier, logger)
	return gw, nil
}

// newWithDeps assembles a Gateway from prebuilt collaborators. Split out so
// tests can inject a mock store and a stub router.
func newWithDeps(cfg *config.Config, s store.Store, chatSvc *chat.Service, verifier auth.TokenVerifier, logger *slog.Logger) *Gateway {
	gw := &Gateway{
		config:       cfg,
		store:        s,
		chat:         chatSvc,
		logger:       logger.With("component", "gateway"),
		agentTimeout: cfg.Agent.Timeout,
	}
	if gw.agentTimeout <= 0 {
		gw.agentTimeout = config.DefaultAgentTimeout
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// Chat API - auth required
	authMiddleware := auth.Middleware(verifier)
	mux.Handle("/api/chat/send", authMiddleware(http.HandlerFunc(gw.handleSend)))
	mux.Handle("/api/chat/conversations", authMiddleware(http.HandlerFunc(gw.handleListConversations)))
	mux.Handle("/api/chat/conversations/", authMiddleware(http.HandlerFunc(gw.handleConversationRoutes)))

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw
}

// Handler exposes the routed handler for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if err := g.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	g.logger.Info("shutdown complete")
	return nil
}

// handleHealth handles GET /health liveness checks.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleReady handles GET /health/ready readiness checks by pinging the store.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(r.Context()); err != nil {
		g.logger.Error("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}
