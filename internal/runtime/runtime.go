// Package runtime wires configuration, engines, the session store, and
// the HTTP surface into one process.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Choudhary4/voice-agent/internal/agent"
	"github.com/Choudhary4/voice-agent/internal/bus"
	"github.com/Choudhary4/voice-agent/internal/config"
	"github.com/Choudhary4/voice-agent/internal/events"
	"github.com/Choudhary4/voice-agent/internal/httpapi"
	"github.com/Choudhary4/voice-agent/internal/llm"
	"github.com/Choudhary4/voice-agent/internal/natsserver"
	"github.com/Choudhary4/voice-agent/internal/session"
	"github.com/Choudhary4/voice-agent/internal/tts"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Runtime struct {
	cfg    config.Config
	logger *slog.Logger
	wg     sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{cfg: cfg, logger: logger}
}

// Start brings the service up and blocks until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	embedded, busClient, err := r.startBus()
	if err != nil {
		return err
	}

	timeline, err := events.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return fmt.Errorf("open turn timeline: %w", err)
	}

	recorder, timelineService := r.buildRecorder(ctx, busClient, timeline)

	completer, err := newCompleter(r.cfg.LLM)
	if err != nil {
		return err
	}
	synth, err := newSynthesizer(r.cfg.TTS)
	if err != nil {
		return err
	}

	store := session.NewStore()
	voiceAgent := agent.New(r.cfg, store, completer, synth, recorder, r.logger)
	handler := httpapi.NewHandler(voiceAgent, r.logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     r.cfg.HTTP.CORSOrigins,
		AllowCredentials: true,
	}))
	handler.RegisterRoutes(e)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	var metricsServer *http.Server
	if metricsHandler != nil {
		metricsServer = &http.Server{
			Addr:              r.cfg.Telemetry.PrometheusBind,
			Handler:           metricsHandler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	r.logger.Info("voice agent started",
		slog.String("addr", addr),
		slog.String("llm_mode", r.cfg.LLM.Mode),
		slog.String("tts_mode", r.cfg.TTS.Mode))

	<-ctx.Done()
	r.logger.Info("voice agent stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := e.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	if timelineService != nil {
		timelineService.Close()
	}
	busClient.Close()
	embedded.Shutdown()
	if err := timeline.Close(); err != nil {
		r.logger.Error("turn timeline close error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
	}

	return nil
}

func (r *Runtime) startBus() (*natsserver.EmbeddedServer, *bus.Client, error) {
	if !r.cfg.Bus.Enabled {
		return nil, nil, nil
	}
	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start embedded bus: %w", err)
	}
	busClient, err := bus.Connect(r.cfg.Bus, r.logger)
	if err != nil {
		embedded.Shutdown()
		return nil, nil, err
	}
	return embedded, busClient, nil
}

// buildRecorder picks how turn outcomes reach the timeline: over the bus
// when one is configured, directly into the store when only persistence
// is configured, otherwise a no-op.
func (r *Runtime) buildRecorder(ctx context.Context, busClient *bus.Client, timeline *events.Store) (events.Recorder, *events.Service) {
	if busClient != nil {
		svc := events.NewService(ctx, busClient, timeline, r.logger)
		if err := svc.Start(); err != nil {
			r.logger.Warn("turn timeline service failed to start", slog.String("error", err.Error()))
			svc = nil
		}
		return events.NewBusRecorder(busClient, r.logger), svc
	}
	if r.cfg.EventStore.RetentionMode != "ephemeral" {
		return events.NewStoreRecorder(timeline, r.logger), nil
	}
	return events.NewNoopRecorder(), nil
}

func newCompleter(cfg config.LLMConfig) (llm.Completer, error) {
	switch cfg.Mode {
	case "mock":
		return llm.NewMockCompleter(), nil
	case "openrouter":
		return llm.NewOpenRouterCompleter(cfg), nil
	case "exec":
		return llm.NewExecCompleter(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown llm mode %q", cfg.Mode)
	}
}

func newSynthesizer(cfg config.TTSConfig) (tts.Synthesizer, error) {
	switch cfg.Mode {
	case "mock":
		return tts.NewMockSynth(), nil
	case "elevenlabs":
		return tts.NewElevenLabsSynth(cfg), nil
	case "exec":
		return tts.NewExecSynth(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown tts mode %q", cfg.Mode)
	}
}
