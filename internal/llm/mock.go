package llm

import (
	"context"
	"strings"
	"time"
)

type mockCompleter struct{}

func NewMockCompleter() Completer { return &mockCompleter{} }

func (m *mockCompleter) Complete(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	var last string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			last = msg.Content
		}
	}
	return "[mock reply to " + strings.TrimSpace(last) + "]", nil
}
