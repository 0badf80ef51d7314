// Package agent implements the turn-taking pipeline: session context in,
// completion reply out, optionally rendered to speech.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Choudhary4/voice-agent/internal/config"
	"github.com/Choudhary4/voice-agent/internal/events"
	"github.com/Choudhary4/voice-agent/internal/llm"
	"github.com/Choudhary4/voice-agent/internal/protocol"
	"github.com/Choudhary4/voice-agent/internal/session"
	"github.com/Choudhary4/voice-agent/internal/tts"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Format selects the shape of a turn result.
type Format string

const (
	FormatAudio Format = "audio"
	FormatJSON  Format = "json"
	FormatText  Format = "text"
)

var (
	// ErrEmptyInput rejects blank user text before any state mutation
	// or external call.
	ErrEmptyInput = errors.New("text is required")
	// ErrCompletionUnavailable is returned when the completion engine
	// degraded to its failure-marker reply.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
)

// TurnRequest is one caller message headed through the pipeline.
type TurnRequest struct {
	SessionID string
	Text      string
	Format    Format
}

// TurnResult is the outcome of one turn. Text is always set when the
// completion step succeeded; Audio is empty when synthesis failed or
// was skipped.
type TurnResult struct {
	SessionID       string
	TraceID         string
	Text            string
	Audio           []byte
	SynthesisFailed bool
}

// Agent orchestrates one turn end to end. External calls run without
// holding any store lock; only the history read and the pair append
// synchronize on the session.
type Agent struct {
	cfg       config.AgentConfig
	llmCfg    config.LLMConfig
	ttsCfg    config.TTSConfig
	store     *session.Store
	completer llm.Completer
	synth     tts.Synthesizer
	recorder  events.Recorder
	logger    *slog.Logger
	tracer    trace.Tracer
	turns     metric.Int64Counter
	synthFail metric.Int64Counter
}

func New(cfg config.Config, store *session.Store, completer llm.Completer, synth tts.Synthesizer, recorder events.Recorder, logger *slog.Logger) *Agent {
	if recorder == nil {
		recorder = events.NewNoopRecorder()
	}
	meter := otel.Meter("voice-agent/agent")
	turns, _ := meter.Int64Counter("voice_agent_turns_total",
		metric.WithDescription("Completed and failed turns by outcome"))
	synthFail, _ := meter.Int64Counter("voice_agent_synthesis_failures_total",
		metric.WithDescription("Turns that completed without audio"))
	return &Agent{
		cfg:       cfg.Agent,
		llmCfg:    cfg.LLM,
		ttsCfg:    cfg.TTS,
		store:     store,
		completer: completer,
		synth:     synth,
		recorder:  recorder,
		logger:    logger.With(slog.String("component", "agent")),
		tracer:    otel.Tracer("voice-agent/agent"),
		turns:     turns,
		synthFail: synthFail,
	}
}

// HandleTurn runs one request/response cycle: ensure the session, ask
// the completion engine with the prior history, append the exchanged
// pair, then synthesize audio unless the caller asked for text only.
// Synthesis failure degrades the result instead of failing the turn.
func (a *Agent) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return TurnResult{}, ErrEmptyInput
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = a.cfg.DefaultSessionID
	}
	format := req.Format
	if format == "" {
		format = FormatAudio
	}
	traceID := uuid.NewString()
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "agent.turn", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("turn.format", string(format)),
	))
	defer span.End()

	a.store.Ensure(sessionID)

	reply, err := a.completer.Complete(ctx, llm.Request{
		Messages:    a.buildMessages(sessionID, text),
		Model:       a.llmCfg.Model,
		MaxTokens:   a.llmCfg.MaxTokens,
		Temperature: a.llmCfg.Temperature,
	})
	if err != nil {
		reply = llm.ErrorReply(err)
	}
	if llm.IsErrorReply(reply) {
		a.logger.Warn("completion engine unavailable",
			slog.String("session_id", sessionID),
			slog.String("trace_id", traceID),
			slog.String("detail", reply))
		a.recordFailure(ctx, sessionID, traceID, format, reply, start)
		a.countTurn(ctx, "completion_unavailable")
		return TurnResult{}, fmt.Errorf("%w: %s", ErrCompletionUnavailable, reply)
	}

	a.store.AppendPair(sessionID, text, reply)

	result := TurnResult{SessionID: sessionID, TraceID: traceID, Text: reply}

	if format == FormatText {
		a.recordCompletion(ctx, result, format, start)
		a.countTurn(ctx, "completed")
		return result, nil
	}

	audio, synthErr := a.synthesize(ctx, reply)
	if synthErr != nil {
		a.logger.Warn("synthesis failed, returning text-only result",
			slog.String("session_id", sessionID),
			slog.String("trace_id", traceID),
			slog.String("error", synthErr.Error()))
		result.SynthesisFailed = true
		result.Text = Apology(reply)
		a.synthFail.Add(ctx, 1)
	} else {
		result.Audio = audio
	}

	a.recordCompletion(ctx, result, format, start)
	a.countTurn(ctx, "completed")
	return result, nil
}

// History exposes the session store snapshot for the request surface.
func (a *Agent) History(sessionID string) []session.Message {
	if sessionID == "" {
		sessionID = a.cfg.DefaultSessionID
	}
	return a.store.History(sessionID)
}

// ClearSession drops a session's history.
func (a *Agent) ClearSession(sessionID string) {
	if sessionID == "" {
		sessionID = a.cfg.DefaultSessionID
	}
	a.store.Clear(sessionID)
}

// Apology rewraps a reply whose audio could not be produced. The
// original reply content stays visible for the caller's records.
func Apology(reply string) string {
	return "I'm sorry, I couldn't generate audio for this response. Here is what I wanted to say: " + reply
}

func (a *Agent) buildMessages(sessionID, userText string) []llm.Message {
	history := a.store.History(sessionID)
	if limit := a.cfg.HistoryLimit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: string(session.RoleSystem), Content: a.cfg.SystemPrompt})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: string(session.RoleUser), Content: userText})
	return messages
}

func (a *Agent) synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := a.synth.Synthesize(ctx, tts.Request{
		Text:  text,
		Voice: a.ttsCfg.Voice,
		Model: a.ttsCfg.Model,
	})
	if err != nil {
		return nil, err
	}
	return tts.Normalize(res)
}

func (a *Agent) recordCompletion(ctx context.Context, result TurnResult, format Format, start time.Time) {
	a.recorder.Record(ctx, protocol.SubjectTurnCompleted, protocol.TurnEvent{
		SessionID:       result.SessionID,
		TraceID:         result.TraceID,
		Format:          string(format),
		ReplyChars:      len(result.Text),
		AudioBytes:      len(result.Audio),
		SynthesisFailed: result.SynthesisFailed,
		LatencyMS:       time.Since(start).Milliseconds(),
		Timestamp:       time.Now().UTC(),
	})
}

func (a *Agent) recordFailure(ctx context.Context, sessionID, traceID string, format Format, detail string, start time.Time) {
	a.recorder.Record(ctx, protocol.SubjectTurnFailed, protocol.TurnEvent{
		SessionID: sessionID,
		TraceID:   traceID,
		Format:    string(format),
		Error:     detail,
		LatencyMS: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
}

func (a *Agent) countTurn(ctx context.Context, outcome string) {
	a.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
