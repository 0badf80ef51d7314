package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Choudhary4/voice-agent/internal/config"
)

func testConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Endpoint:    endpoint,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   64,
		Temperature: 0.5,
		TimeoutMS:   2000,
	}
}

func TestOpenRouterCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  Reply A  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenRouterCompleter(testConfig(srv.URL))
	reply, err := c.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Model:    "test-model",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Reply A" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}
	if IsErrorReply(reply) {
		t.Fatal("success reply must not match error marker")
	}
}

func TestOpenRouterCompleteDegradesOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOpenRouterCompleter(testConfig(srv.URL))
	reply, err := c.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("degraded call must not return an error, got %v", err)
	}
	if !IsErrorReply(reply) {
		t.Fatalf("expected error-marker reply, got %q", reply)
	}
}

func TestOpenRouterCompleteDegradesOnTransport(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewOpenRouterCompleter(testConfig(url))
	reply, err := c.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("degraded call must not return an error, got %v", err)
	}
	if !IsErrorReply(reply) {
		t.Fatalf("expected error-marker reply, got %q", reply)
	}
}

func TestOpenRouterCompleteDegradesOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenRouterCompleter(testConfig(srv.URL))
	reply, err := c.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsErrorReply(reply) {
		t.Fatalf("expected error-marker reply, got %q", reply)
	}
}
