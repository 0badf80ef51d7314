package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Choudhary4/voice-agent/internal/config"
)

type elevenLabsSynth struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewElevenLabsSynth builds a synthesizer against the ElevenLabs
// text-to-speech API. The response body streams MP3 audio, so results
// come back as KindReader and are drained by the normalizer.
func NewElevenLabsSynth(cfg config.TTSConfig) Synthesizer {
	return &elevenLabsSynth{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

type synthPayload struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *elevenLabsSynth) Synthesize(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(synthPayload{Text: req.Text, ModelID: req.Model})
	if err != nil {
		return Result{}, err
	}

	target := fmt.Sprintf("%s/v1/text-to-speech/%s", e.endpoint, url.PathEscape(req.Voice))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return Result{}, fmt.Errorf("elevenlabs returned status %s: %s", resp.Status, detail)
	}
	return ReaderResult(resp.Body), nil
}
