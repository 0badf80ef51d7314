package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execCompleter struct {
	cmd []string
	mu  sync.Mutex
}

type execPayload struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type execReply struct {
	Content string `json:"content"`
}

// NewExecCompleter runs a local command per completion, feeding the
// message list as JSON on stdin and reading a JSON reply from stdout.
func NewExecCompleter(command string) (Completer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse llm command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("llm command empty")
	}
	return &execCompleter{cmd: args}, nil
}

func (g *execCompleter) Complete(ctx context.Context, req Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	input, err := json.Marshal(execPayload{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	base := g.cmd[0]
	args := append([]string{}, g.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("llm exec command failed: %w", err)
	}

	var reply execReply
	if err := json.Unmarshal(output, &reply); err != nil {
		return "", fmt.Errorf("decode llm exec reply: %w", err)
	}
	return reply.Content, nil
}
