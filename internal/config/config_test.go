// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

auth:
  jwt_secret: "super-secret"

agent:
  base_url: "https://api.openai.com/v1"
  api_key: "sk-test"
  model: "gpt-4o-mini"
  system_prompt: "You are a helpful tutor."
  max_history_turns: 10
  timeout: "45s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.JWTSecret != "super-secret" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "super-secret")
	}
	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("Agent.Model = %q, want %q", cfg.Agent.Model, "gpt-4o-mini")
	}
	if cfg.Agent.MaxHistoryTurns != 10 {
		t.Errorf("Agent.MaxHistoryTurns = %d, want 10", cfg.Agent.MaxHistoryTurns)
	}
	if cfg.Agent.Timeout != 45*time.Second {
		t.Errorf("Agent.Timeout = %v, want 45s", cfg.Agent.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	t.Setenv("TEST_AGENT_KEY", "sk-env")

	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
agent:
  api_key: "${TEST_AGENT_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "from-env")
	}
	if cfg.Agent.APIKey != "sk-env" {
		t.Errorf("Agent.APIKey = %q, want %q", cfg.Agent.APIKey, "sk-env")
	}
}

func TestLoad_DefaultAgentTimeout(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
agent:
  api_key: "sk-test"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.Timeout != DefaultAgentTimeout {
		t.Errorf("Agent.Timeout = %v, want default %v", cfg.Agent.Timeout, DefaultAgentTimeout)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
agent:
  api_key: "sk-test"
  timeout: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded with invalid duration")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error %q does not mention timeout", err)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
agent:
  api_key: "k"
`,
			wantErr: "server.http_addr",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: "127.0.0.1:8080"
auth:
  jwt_secret: "s"
agent:
  api_key: "k"
`,
			wantErr: "database.path",
		},
		{
			name: "missing jwt secret",
			content: `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
agent:
  api_key: "k"
`,
			wantErr: "auth.jwt_secret",
		},
		{
			name: "missing agent api key",
			content: `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
`,
			wantErr: "agent.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Load() succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() succeeded for missing file")
	}
}
