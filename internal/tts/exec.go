package tts

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execSynth struct {
	cmd []string
	mu  sync.Mutex
}

type execRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type execResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Final       bool   `json:"final"`
}

// NewExecSynth runs a local command per synthesis. The command reads a
// JSON request on stdin and writes newline-delimited JSON chunks of
// base64 audio on stdout, so results come back as KindChunks.
func NewExecSynth(command string) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command empty")
	}
	return &execSynth{cmd: args}, nil
}

func (e *execSynth) Synthesize(ctx context.Context, req Request) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	input, err := json.Marshal(execRequest{Text: req.Text, Voice: req.Voice})
	if err != nil {
		return Result{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	if err := cmd.Start(); err != nil {
		return Result{}, err
	}

	if _, err := stdin.Write(input); err != nil {
		cmd.Wait()
		return Result{}, err
	}
	stdin.Close()

	var chunks []Chunk
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return Result{}, fmt.Errorf("decode tts chunk: %w", err)
		}
		audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
		if err != nil {
			cmd.Wait()
			return Result{}, fmt.Errorf("decode tts chunk audio: %w", err)
		}
		chunks = append(chunks, Chunk{Bytes: audio})
		if resp.Final {
			break
		}
	}
	if err := cmd.Wait(); err != nil {
		return Result{}, fmt.Errorf("tts exec command failed: %w", err)
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return ChunksResult(chunks...), nil
}
