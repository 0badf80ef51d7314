package protocol

import "time"

// TurnEvent describes the outcome of one orchestrated turn, published on
// the bus for the timeline service. Message content never travels here;
// only sizes and failure detail do.
type TurnEvent struct {
	SessionID       string    `json:"session_id"`
	TraceID         string    `json:"trace_id"`
	Format          string    `json:"format"`
	ReplyChars      int       `json:"reply_chars"`
	AudioBytes      int       `json:"audio_bytes"`
	SynthesisFailed bool      `json:"synthesis_failed,omitempty"`
	Error           string    `json:"error,omitempty"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

const (
	SubjectTurnCompleted = "turn.completed"
	SubjectTurnFailed    = "turn.failed"
)
