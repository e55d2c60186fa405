// Package config loads and validates chat-gateway configuration.
//
// Configuration is YAML with ${ENV_VAR} expansion applied to the raw file
// before parsing:
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	database:
//	  path: "/var/lib/nupal/chat.db"
//
//	auth:
//	  jwt_secret: "${NUPAL_JWT_SECRET}"
//
//	agent:
//	  base_url: "https://api.openai.com/v1"
//	  api_key: "${NUPAL_AGENT_API_KEY}"
//	  model: "gpt-4o-mini"
//	  system_prompt: "You are a patient tutor."
//	  max_history_turns: 20
//	  timeout: "60s"
//
//	logging:
//	  level: "info"
//	  format: "text"
//
// Load performs env expansion, duration parsing, and validation in one pass;
// a Config that comes back without error is complete enough to serve.
package config
