package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt steers the completion engine toward supportive,
// non-clinical replies. Deployments override it via agent.system_prompt.
const DefaultSystemPrompt = "You are a compassionate, empathetic mental health supporter. " +
	"Your role is to provide thoughtful, safe, and non-judgmental guidance to users who may be experiencing emotional distress, anxiety, depression, or other mental health challenges. " +
	"Always listen actively, validate their feelings, and offer practical self-care suggestions. " +
	"Encourage users to seek professional help from licensed therapists, counselors, or crisis hotlines when they display signs of severe distress, suicidal ideation, or crisis indicators. " +
	"Remind users that you are not a replacement for professional mental health services. " +
	"Be warm, supportive, and use language that promotes hope and healing. " +
	"If someone is in immediate danger, always direct them to emergency services or crisis hotlines."

type HTTPConfig struct {
	Bind        string   `yaml:"bind"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type AgentConfig struct {
	SystemPrompt     string `yaml:"system_prompt"`
	DefaultSessionID string `yaml:"default_session_id"`
	HistoryLimit     int    `yaml:"history_limit"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, openrouter, exec
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Command     string  `yaml:"command"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

type TTSConfig struct {
	Mode      string `yaml:"mode"` // mock, elevenlabs, exec
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	Command   string `yaml:"command"`
	Voice     string `yaml:"voice"`
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type Config struct {
	ServiceName string           `yaml:"service_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	EventStore  EventStoreConfig `yaml:"event_store"`
	Agent       AgentConfig      `yaml:"agent"`
	LLM         LLMConfig        `yaml:"llm"`
	TTS         TTSConfig        `yaml:"tts"`
}

func Default() Config {
	return Config{
		ServiceName: "voice-agent",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8000,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/voice-agent-events.db",
			RetentionMode: "ephemeral",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Agent: AgentConfig{
			SystemPrompt:     DefaultSystemPrompt,
			DefaultSessionID: "default_session",
			HistoryLimit:     0,
		},
		LLM: LLMConfig{
			Mode:        "openrouter",
			Endpoint:    "https://openrouter.ai/api/v1/chat/completions",
			Model:       "deepseek/deepseek-chat-v3.1:free",
			MaxTokens:   600,
			Temperature: 0.8,
			TimeoutMS:   30000,
		},
		TTS: TTSConfig{
			Mode:      "elevenlabs",
			Endpoint:  "https://api.elevenlabs.io",
			Voice:     "Xb7hH8MSUJpSbSDYk0k2",
			Model:     "eleven_multilingual_v2",
			TimeoutMS: 45000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "VOICE_SERVICE_NAME")
	overrideString(&cfg.Environment, "VOICE_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOICE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOICE_HTTP_PORT")
	overrideInt(&cfg.HTTP.Port, "PORT")
	overrideStringSlice(&cfg.HTTP.CORSOrigins, "VOICE_HTTP_CORS_ORIGINS")
	overrideString(&cfg.Telemetry.LogLevel, "VOICE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOICE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOICE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VOICE_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "VOICE_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOICE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOICE_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOICE_BUS_SERVERS")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOICE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "VOICE_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "VOICE_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "VOICE_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "VOICE_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "VOICE_EVENT_STORE_VACUUM_ON_START")
	overrideString(&cfg.Agent.SystemPrompt, "VOICE_AGENT_SYSTEM_PROMPT")
	overrideString(&cfg.Agent.DefaultSessionID, "VOICE_AGENT_DEFAULT_SESSION_ID")
	overrideInt(&cfg.Agent.HistoryLimit, "VOICE_AGENT_HISTORY_LIMIT")
	overrideString(&cfg.LLM.Mode, "VOICE_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "VOICE_LLM_ENDPOINT")
	overrideString(&cfg.LLM.APIKey, "VOICE_LLM_API_KEY")
	overrideString(&cfg.LLM.APIKey, "OPENROUTER_API_KEY")
	overrideString(&cfg.LLM.Command, "VOICE_LLM_COMMAND")
	overrideString(&cfg.LLM.Model, "VOICE_LLM_MODEL")
	overrideString(&cfg.LLM.Model, "MODEL_NAME")
	overrideInt(&cfg.LLM.MaxTokens, "VOICE_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "VOICE_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "VOICE_LLM_TIMEOUT_MS")
	overrideString(&cfg.TTS.Mode, "VOICE_TTS_MODE")
	overrideString(&cfg.TTS.Endpoint, "VOICE_TTS_ENDPOINT")
	overrideString(&cfg.TTS.APIKey, "VOICE_TTS_API_KEY")
	overrideString(&cfg.TTS.APIKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.TTS.Command, "VOICE_TTS_COMMAND")
	overrideString(&cfg.TTS.Voice, "VOICE_TTS_VOICE")
	overrideString(&cfg.TTS.Model, "VOICE_TTS_MODEL")
	overrideInt(&cfg.TTS.TimeoutMS, "VOICE_TTS_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.EventStore.Path == "" && cfg.EventStore.RetentionMode != "ephemeral" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Agent.SystemPrompt == "" {
		return errors.New("agent.system_prompt must not be empty")
	}
	if cfg.Agent.DefaultSessionID == "" {
		return errors.New("agent.default_session_id must not be empty")
	}
	if cfg.Agent.HistoryLimit < 0 {
		return errors.New("agent.history_limit must be >= 0")
	}
	switch cfg.LLM.Mode {
	case "mock", "openrouter", "exec":
	default:
		return errors.New("llm.mode must be one of mock|openrouter|exec")
	}
	if cfg.LLM.Mode == "openrouter" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=openrouter")
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if cfg.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens must be >= 0")
	}
	if cfg.LLM.TimeoutMS <= 0 {
		return errors.New("llm.timeout_ms must be positive")
	}
	switch cfg.TTS.Mode {
	case "mock", "elevenlabs", "exec":
	default:
		return errors.New("tts.mode must be one of mock|elevenlabs|exec")
	}
	if cfg.TTS.Mode == "elevenlabs" && cfg.TTS.Endpoint == "" {
		return errors.New("tts.endpoint must be set when mode=elevenlabs")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.TimeoutMS <= 0 {
		return errors.New("tts.timeout_ms must be positive")
	}
	return nil
}
