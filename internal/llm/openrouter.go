package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Choudhary4/voice-agent/internal/config"
)

type openRouterCompleter struct {
	endpoint string
	apiKey   string
	title    string
	client   *http.Client
}

// NewOpenRouterCompleter builds a completer for the OpenRouter chat
// completions API. Failures talking to the service never surface as
// errors; they come back as ErrorMarker replies so the caller can keep
// the turn alive and decide what to do.
func NewOpenRouterCompleter(cfg config.LLMConfig) Completer {
	return &openRouterCompleter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		title:    "Mental Health Support Agent",
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openRouterCompleter) Complete(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ErrorReply(err), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ErrorReply(err), nil
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", c.title)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return ErrorReply(err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ErrorReply(fmt.Errorf("openrouter returned status %s", resp.Status)), nil
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ErrorReply(err), nil
	}
	if len(decoded.Choices) == 0 {
		return ErrorReply(fmt.Errorf("openrouter returned no choices")), nil
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
