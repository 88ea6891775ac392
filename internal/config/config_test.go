package config

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// processMap runs envconfig against a fixed map instead of the process
// environment.
func processMap(t *testing.T, env map[string]string) *Config {
	t.Helper()
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(env),
	}); err != nil {
		t.Fatalf("process env: %v", err)
	}
	return &cfg
}

func validEnv() map[string]string {
	return map[string]string{
		"DISCORD_TOKEN":  "token-123",
		"OPENAI_API_KEY": "sk-test",
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := processMap(t, validEnv())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.LogLevel != LogInfo {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
	if !cfg.Voice.Enabled || !cfg.Voice.AutoJoin {
		t.Errorf("voice defaults: %+v", cfg.Voice)
	}
	if cfg.Voice.SilenceDuration.Duration() != 1500*time.Millisecond {
		t.Errorf("silence duration: got %s", cfg.Voice.SilenceDuration)
	}
	if cfg.Voice.SampleRate != 48000 {
		t.Errorf("sample rate: got %d", cfg.Voice.SampleRate)
	}
	if cfg.OpenAI.SpeechModel != "gpt-audio" || cfg.OpenAI.SpeechVoice != "alloy" {
		t.Errorf("openai defaults: %+v", cfg.OpenAI)
	}
	if cfg.LLM.Backend != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm defaults: %+v", cfg.LLM)
	}
	if cfg.Whisper.Language != "en" {
		t.Errorf("whisper language: got %q", cfg.Whisper.Language)
	}
	if cfg.Chat.HistorySize != 30 || cfg.Chat.HistoryAge != 15*time.Minute {
		t.Errorf("chat defaults: %+v", cfg.Chat)
	}
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	env := validEnv()
	env["VOICE_ENABLED"] = "false"
	env["VOICE_SILENCE_DURATION"] = "3s"
	env["AUDIO_SAMPLE_RATE"] = "24000"
	env["LLM_BACKEND"] = "anthropic"
	env["LLM_MODEL"] = "claude-3-5-sonnet-latest"
	env["LOG_LEVEL"] = "debug"

	cfg := processMap(t, env)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Voice.Enabled {
		t.Error("voice should be disabled")
	}
	if cfg.Voice.SilenceDuration.Duration() != 3*time.Second {
		t.Errorf("silence duration: got %s", cfg.Voice.SilenceDuration)
	}
	if cfg.Voice.SampleRate != 24000 {
		t.Errorf("sample rate: got %d", cfg.Voice.SampleRate)
	}
	if cfg.LLM.Backend != "anthropic" {
		t.Errorf("llm backend: got %q", cfg.LLM.Backend)
	}
	if cfg.LogLevel.SlogLevel() != slog.LevelDebug {
		t.Errorf("slog level: got %v", cfg.LogLevel.SlogLevel())
	}
}

func TestSilenceDurationForms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		val  string
		want time.Duration
	}{
		{"1.5", 1500 * time.Millisecond},
		{"2", 2 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"750ms", 750 * time.Millisecond},
	}
	for _, tc := range cases {
		env := validEnv()
		env["VOICE_SILENCE_DURATION"] = tc.val
		cfg := processMap(t, env)
		if got := cfg.Voice.SilenceDuration.Duration(); got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.val, got, tc.want)
		}
	}

	var d Duration
	if err := d.EnvDecode("soon"); err == nil {
		t.Error("expected error for non-duration value")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := processMap(t, map[string]string{
		"LOG_LEVEL":              "loud",
		"VOICE_SILENCE_DURATION": "0s",
	})

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	for _, want := range []string{"DISCORD_TOKEN", "OPENAI_API_KEY", "LOG_LEVEL", "VOICE_SILENCE_DURATION"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if LogLevel("verbose").IsValid() {
		t.Error("verbose should be invalid")
	}
	if LogLevel("warn").SlogLevel() != slog.LevelWarn {
		t.Error("warn mapping wrong")
	}
}
