package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8000 {
		t.Fatalf("expected default port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Agent.DefaultSessionID != "default_session" {
		t.Fatalf("expected default session id, got %q", cfg.Agent.DefaultSessionID)
	}
	if cfg.LLM.Model != "deepseek/deepseek-chat-v3.1:free" {
		t.Fatalf("unexpected default model: %q", cfg.LLM.Model)
	}
	if cfg.EventStore.RetentionMode != "ephemeral" {
		t.Fatalf("expected ephemeral event store by default, got %q", cfg.EventStore.RetentionMode)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Fatalf("expected 2 default CORS origins, got %v", cfg.HTTP.CORSOrigins)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voiceagent.yaml")
	data := []byte("http:\n  port: 9000\nllm:\n  mode: mock\ntts:\n  mode: mock\n  voice: test-voice\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.LLM.Mode != "mock" || cfg.TTS.Mode != "mock" {
		t.Fatalf("expected mock engine modes, got %q/%q", cfg.LLM.Mode, cfg.TTS.Mode)
	}
	if cfg.TTS.Voice != "test-voice" {
		t.Fatalf("expected voice override, got %q", cfg.TTS.Voice)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOICE_HTTP_CORS_ORIGINS", "https://one.example, https://two.example")
	t.Setenv("VOICE_LLM_MODE", "mock")
	t.Setenv("VOICE_LLM_TEMPERATURE", "0.3")
	t.Setenv("VOICE_TTS_MODE", "mock")
	t.Setenv("VOICE_AGENT_DEFAULT_SESSION_ID", "shared")
	t.Setenv("VOICE_AGENT_HISTORY_LIMIT", "12")
	t.Setenv("VOICE_EVENT_STORE_RETENTION_MODE", "session")
	t.Setenv("VOICE_EVENT_STORE_PATH", "./tmp.db")
	t.Setenv("OPENROUTER_API_KEY", "or-test-key")
	t.Setenv("ELEVENLABS_API_KEY", "el-test-key")
	t.Setenv("PORT", "8081")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://two.example" {
		t.Fatalf("expected CORS override, got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("expected temperature override, got %v", cfg.LLM.Temperature)
	}
	if cfg.Agent.DefaultSessionID != "shared" {
		t.Fatalf("expected session id override")
	}
	if cfg.Agent.HistoryLimit != 12 {
		t.Fatalf("expected history limit override, got %d", cfg.Agent.HistoryLimit)
	}
	if cfg.EventStore.RetentionMode != "session" {
		t.Fatalf("expected retention mode override")
	}
	if cfg.LLM.APIKey != "or-test-key" {
		t.Fatalf("expected OPENROUTER_API_KEY to apply")
	}
	if cfg.TTS.APIKey != "el-test-key" {
		t.Fatalf("expected ELEVENLABS_API_KEY to apply")
	}
	if cfg.HTTP.Port != 8081 {
		t.Fatalf("expected PORT to apply, got %d", cfg.HTTP.Port)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	t.Setenv("VOICE_LLM_MODE", "grpc")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown llm mode")
	}
}

func TestValidateExecRequiresCommand(t *testing.T) {
	t.Setenv("VOICE_TTS_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when tts exec mode has no command")
	}
}
