// ABOUTME: Minimal fake agent for E2E testing — serves an OpenAI-compatible completions endpoint that echoes.
// ABOUTME: Usage: fake-agent [-addr localhost:8090] [-fail none|unavailable|rejected]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionChoice struct {
	Index   int         `json:"index"`
	Message chatMessage `json:"message"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
}

func main() {
	addr := flag.String("addr", "localhost:8090", "listen address")
	failMode := flag.String("fail", "none", "failure mode: none, unavailable, rejected")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		switch *failMode {
		case "unavailable":
			writeAPIError(w, http.StatusServiceUnavailable, "fake agent is down")
			return
		case "rejected":
			writeAPIError(w, http.StatusBadRequest, "fake agent rejects everything")
			return
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		// Echo the last user message back, markdown-flavored.
		last := ""
		for _, m := range req.Messages {
			if m.Role == "user" {
				last = m.Content
			}
		}
		reply := fmt.Sprintf("You said:\n\n> %s\n\nThat's **%d** characters.", last, len(last))

		resp := completionResponse{
			ID:      fmt.Sprintf("fake-%d", time.Now().UnixNano()),
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []completionChoice{
				{Index: 0, Message: chatMessage{Role: "assistant", Content: reply}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	log.Printf("fake-agent listening on %s (fail=%s)", *addr, *failMode)
	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "fake_agent_error",
		},
	})
}
