package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message is one chat message sent to the completion engine.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the full message list for one completion call. The
// completer is stateless; conversation history arrives here every time.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completer defines a pluggable completion backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrorMarker prefixes replies produced when the engine itself failed.
// Remote backends degrade transport and protocol failures into a reply
// carrying this marker instead of returning an error.
const ErrorMarker = "Error contacting LLM:"

// ErrorReply renders a failure as a marker-prefixed reply string.
func ErrorReply(err error) string {
	return fmt.Sprintf("%s %v", ErrorMarker, err)
}

// IsErrorReply reports whether text is a degraded failure reply.
func IsErrorReply(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ErrorMarker)
}
