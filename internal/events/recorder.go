package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Choudhary4/voice-agent/internal/bus"
	"github.com/Choudhary4/voice-agent/internal/protocol"
)

// Recorder receives turn outcomes from the orchestrator. Recording is
// best-effort; a failing recorder must never fail a turn.
type Recorder interface {
	Record(ctx context.Context, subject string, evt protocol.TurnEvent)
}

type noopRecorder struct{}

func NewNoopRecorder() Recorder { return noopRecorder{} }

func (noopRecorder) Record(context.Context, string, protocol.TurnEvent) {}

// BusRecorder publishes turn events on the NATS bus for the timeline
// service (and any other subscriber) to consume.
type BusRecorder struct {
	bus *bus.Client
	log *slog.Logger
}

func NewBusRecorder(busClient *bus.Client, log *slog.Logger) *BusRecorder {
	return &BusRecorder{bus: busClient, log: log.With(slog.String("component", "turn-recorder"))}
}

func (r *BusRecorder) Record(_ context.Context, subject string, evt protocol.TurnEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		r.log.Warn("failed to marshal turn event", slog.String("error", err.Error()))
		return
	}
	if err := r.bus.Publish(subject, data); err != nil {
		r.log.Warn("failed to publish turn event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

// StoreRecorder appends turn events straight to the timeline store when
// no bus is configured.
type StoreRecorder struct {
	store *Store
	log   *slog.Logger
}

func NewStoreRecorder(store *Store, log *slog.Logger) *StoreRecorder {
	return &StoreRecorder{store: store, log: log.With(slog.String("component", "turn-recorder"))}
}

func (r *StoreRecorder) Record(ctx context.Context, subject string, evt protocol.TurnEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		r.log.Warn("failed to marshal turn event", slog.String("error", err.Error()))
		return
	}
	rec := TurnRecord{
		SessionID: evt.SessionID,
		TraceID:   evt.TraceID,
		Kind:      subject,
		Payload:   payload,
		CreatedAt: evt.Timestamp,
	}
	if err := r.store.AppendTurn(ctx, rec); err != nil {
		r.log.Warn("failed to append turn record", slog.String("error", err.Error()))
	}
}
