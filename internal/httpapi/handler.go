// Package httpapi exposes the voice agent over HTTP.
package httpapi

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Choudhary4/voice-agent/internal/agent"
	"github.com/Choudhary4/voice-agent/internal/session"
	"github.com/labstack/echo/v4"
)

// Handler holds the HTTP handlers for the chat surface.
type Handler struct {
	agent  *agent.Agent
	logger *slog.Logger
}

func NewHandler(a *agent.Agent, logger *slog.Logger) *Handler {
	return &Handler{agent: a, logger: logger.With(slog.String("component", "httpapi"))}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/chat", h.Chat)
	e.POST("/chat/text", h.ChatText)
	e.GET("/chat/sessions/:session_id/history", h.SessionHistory)
	e.DELETE("/chat/sessions/:session_id", h.ClearSession)
}

type chatRequest struct {
	SessionID      string `json:"session_id"`
	Text           string `json:"text"`
	ResponseFormat string `json:"response_format"`
}

type chatJSONResponse struct {
	Text        string `json:"text"`
	AudioBase64 string `json:"audio_base64"`
	SessionID   string `json:"session_id"`
}

type chatTextResponse struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// Chat handles one voice turn.
// POST /chat, body {session_id?, text, response_format?: "audio"|"json"}.
// The default audio format streams MP3 back; json returns the reply text
// with base64 audio. A turn whose synthesis failed degrades to the json
// shape regardless of the requested format, so the caller always gets
// the reply text.
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	format := agent.FormatAudio
	if req.ResponseFormat == string(agent.FormatJSON) {
		format = agent.FormatJSON
	}

	result, err := h.agent.HandleTurn(c.Request().Context(), agent.TurnRequest{
		SessionID: req.SessionID,
		Text:      req.Text,
		Format:    format,
	})
	if err != nil {
		return h.turnError(c, err)
	}

	if format == agent.FormatAudio && !result.SynthesisFailed {
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=response.mp3`)
		return c.Blob(http.StatusOK, "audio/mpeg", result.Audio)
	}

	return c.JSON(http.StatusOK, chatJSONResponse{
		Text:        result.Text,
		AudioBase64: base64.StdEncoding.EncodeToString(result.Audio),
		SessionID:   result.SessionID,
	})
}

// ChatText handles a text-only turn; the speech engine is never invoked.
// POST /chat/text, body {session_id?, text}.
func (h *Handler) ChatText(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := h.agent.HandleTurn(c.Request().Context(), agent.TurnRequest{
		SessionID: req.SessionID,
		Text:      req.Text,
		Format:    agent.FormatText,
	})
	if err != nil {
		return h.turnError(c, err)
	}

	return c.JSON(http.StatusOK, chatTextResponse{Text: result.Text, SessionID: result.SessionID})
}

// SessionHistory returns the stored conversation for a session.
// GET /chat/sessions/:session_id/history
func (h *Handler) SessionHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	history := h.agent.History(sessionID)
	if history == nil {
		history = []session.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   history,
	})
}

// ClearSession drops a session's conversation history.
// DELETE /chat/sessions/:session_id
func (h *Handler) ClearSession(c echo.Context) error {
	h.agent.ClearSession(c.Param("session_id"))
	return c.NoContent(http.StatusNoContent)
}

// Health reports service liveness.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Voice Agent API is operational",
	})
}

// Root serves the liveness banner.
// GET /
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Voice Agent API is running"})
}

func (h *Handler) turnError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, agent.ErrEmptyInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Text is required"})
	case errors.Is(err, agent.ErrCompletionUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "completion service unavailable"})
	default:
		h.logger.Error("turn failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
