package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Choudhary4/voice-agent/internal/bus"
	"github.com/Choudhary4/voice-agent/internal/protocol"
	"github.com/nats-io/nats.go"
)

// Service subscribes to turn event subjects and appends them to the
// timeline store.
type Service struct {
	bus    *bus.Client
	store  *Store
	subs   []*nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewService(parent context.Context, busClient *bus.Client, store *Store, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:    busClient,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With(slog.String("component", "turn-timeline")),
	}
}

func (s *Service) Start() error {
	for _, subject := range []string{protocol.SubjectTurnCompleted, protocol.SubjectTurnFailed} {
		sub, err := s.bus.Subscribe(subject, s.handleEvent)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

func (s *Service) Close() {
	s.cancel()
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return len(s.subs) > 0 }

func (s *Service) handleEvent(msg *nats.Msg) {
	var evt protocol.TurnEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		s.logger.Warn("failed to decode turn event", slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rec := TurnRecord{
			SessionID: evt.SessionID,
			TraceID:   evt.TraceID,
			Kind:      msg.Subject,
			Payload:   msg.Data,
			CreatedAt: evt.Timestamp,
		}
		if err := s.store.AppendTurn(s.ctx, rec); err != nil {
			s.logger.Warn("failed to append turn record", slog.String("error", err.Error()))
		}
	}()
}
