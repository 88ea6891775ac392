// Package config loads the bot configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel converts l to the slog level it names.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Duration is a time.Duration that also accepts a bare number of seconds,
// so VOICE_SILENCE_DURATION=1.5 and VOICE_SILENCE_DURATION=1500ms mean the
// same thing.
type Duration time.Duration

// EnvDecode implements envconfig.Decoder.
func (d *Duration) EnvDecode(val string) error {
	val = strings.TrimSpace(val)
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q", val)
	}
	*d = Duration(parsed)
	return nil
}

// Duration converts d to the time.Duration it names.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Config is the root configuration structure.
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `env:"LOG_LEVEL, default=info"`

	// MetricsAddr is the listen address for the /metrics and health endpoints.
	// Empty disables the HTTP endpoint.
	MetricsAddr string `env:"METRICS_ADDR, default=:9090"`

	// PostgresDSN is the connection string for the settings and transcript
	// stores. Empty selects the in-memory stores.
	PostgresDSN string `env:"POSTGRES_DSN"`

	Discord DiscordConfig `env:", prefix=DISCORD_"`
	OpenAI  OpenAIConfig  `env:", prefix=OPENAI_"`
	LLM     LLMConfig     `env:", prefix=LLM_"`
	Voice   VoiceConfig
	Whisper WhisperConfig `env:", prefix=WHISPER_"`
	Chat    ChatConfig    `env:", prefix=CHAT_"`
}

// DiscordConfig holds the Discord connection settings.
type DiscordConfig struct {
	// Token is the bot token. Required.
	Token string `env:"TOKEN"`

	// GuildID optionally pins slash command registration to one guild, which
	// makes command changes visible immediately during development.
	GuildID string `env:"GUILD_ID"`

	// AdminRoleID optionally names the role allowed to use admin commands.
	// Empty falls back to the Administrator permission bit.
	AdminRoleID string `env:"ADMIN_ROLE_ID"`
}

// OpenAIConfig holds the OpenAI API settings used for the speech processor,
// image generation, and file uploads.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string `env:"API_KEY"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `env:"BASE_URL"`

	// SpeechModel is the audio-capable chat model for voice replies.
	SpeechModel string `env:"SPEECH_MODEL, default=gpt-audio"`

	// SpeechVoice selects the synthesized voice.
	SpeechVoice string `env:"SPEECH_VOICE, default=alloy"`

	// ImageModel is the image generation model.
	ImageModel string `env:"IMAGE_MODEL, default=gpt-image-1"`
}

// LLMConfig selects the text chat backend.
type LLMConfig struct {
	// Backend is the any-llm backend name ("openai", "anthropic", "ollama", ...).
	Backend string `env:"BACKEND, default=openai"`

	// Model is the chat completion model.
	Model string `env:"MODEL, default=gpt-4o"`

	// APIKey authenticates against the backend. Empty falls back to the
	// backend's own environment variable.
	APIKey string `env:"API_KEY"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `env:"BASE_URL"`

	// FallbackBackend optionally names a second backend tried when the
	// primary keeps failing. Empty disables failover.
	FallbackBackend string `env:"FALLBACK_BACKEND"`

	// FallbackModel is the model used with FallbackBackend.
	FallbackModel string `env:"FALLBACK_MODEL"`
}

// VoiceConfig holds the voice pipeline settings.
type VoiceConfig struct {
	// Enabled switches voice features on or off.
	Enabled bool `env:"VOICE_ENABLED, default=true"`

	// AutoJoin makes the bot follow users into voice channels.
	AutoJoin bool `env:"VOICE_AUTO_JOIN, default=true"`

	// SilenceDuration is the quiet period that ends an utterance, either a
	// number of seconds ("1.5") or a Go duration ("1500ms").
	SilenceDuration Duration `env:"VOICE_SILENCE_DURATION, default=1.5"`

	// SampleRate is the sample rate of the audio handed to the speech
	// processor.
	SampleRate int `env:"AUDIO_SAMPLE_RATE, default=48000"`
}

// WhisperConfig enables local utterance transcription when a model path is
// configured.
type WhisperConfig struct {
	// ModelPath points at a ggml whisper model file. Empty disables
	// transcription.
	ModelPath string `env:"MODEL_PATH"`

	// Language hints the spoken language.
	Language string `env:"LANGUAGE, default=en"`
}

// ChatConfig holds the text chat settings.
type ChatConfig struct {
	// PersonaFile optionally overlays the built-in personas.
	PersonaFile string `env:"PERSONA_FILE"`

	// HistorySize caps the per-channel conversation history.
	HistorySize int `env:"HISTORY_SIZE, default=30"`

	// HistoryAge is how long history turns stay relevant.
	HistoryAge time.Duration `env:"HISTORY_AGE, default=15m"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load(ctx context.Context) (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Discord.Token == "" {
		errs = append(errs, errors.New("config: DISCORD_TOKEN is required"))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("config: OPENAI_API_KEY is required"))
	}
	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel))
	}
	if c.Voice.SilenceDuration.Duration() <= 0 {
		errs = append(errs, fmt.Errorf("config: VOICE_SILENCE_DURATION must be positive, got %s", c.Voice.SilenceDuration))
	}
	if c.Voice.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("config: AUDIO_SAMPLE_RATE must be positive, got %d", c.Voice.SampleRate))
	}
	if c.LLM.Backend == "" {
		errs = append(errs, errors.New("config: LLM_BACKEND must not be empty"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("config: LLM_MODEL must not be empty"))
	}

	return errors.Join(errs...)
}
