// Command parley is the Discord AI chatbot: it answers mentions in text
// channels and holds spoken conversations in voice channels.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/parley-bot/parley/internal/chat"
	"github.com/parley-bot/parley/internal/config"
	discordbot "github.com/parley-bot/parley/internal/discord"
	"github.com/parley-bot/parley/internal/discord/commands"
	"github.com/parley-bot/parley/internal/health"
	"github.com/parley-bot/parley/internal/observe"
	"github.com/parley-bot/parley/internal/resilience"
	"github.com/parley-bot/parley/internal/settings"
	"github.com/parley-bot/parley/internal/transcript"
	"github.com/parley-bot/parley/internal/upload"
	"github.com/parley-bot/parley/internal/voice"
	imageopenai "github.com/parley-bot/parley/pkg/provider/image/openai"
	"github.com/parley-bot/parley/pkg/provider/llm"
	"github.com/parley-bot/parley/pkg/provider/llm/anyllm"
	llmopenai "github.com/parley-bot/parley/pkg/provider/llm/openai"
	speechopenai "github.com/parley-bot/parley/pkg/provider/speech/openai"
	"github.com/parley-bot/parley/pkg/provider/stt/whisper"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("parley starting",
		"version", version,
		"log_level", cfg.LogLevel,
		"metrics_addr", cfg.MetricsAddr,
	)

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "parley",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Stores ────────────────────────────────────────────────────────────────
	var (
		pool          *pgxpool.Pool
		transcripts   transcript.Store = transcript.NewMemoryStore()
		settingsStore settings.Store   = settings.NewMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		pool, err = pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		pgTranscripts, err := transcript.NewPostgresStore(ctx, pool)
		if err != nil {
			slog.Error("failed to initialise transcript store", "err", err)
			return 1
		}
		pgSettings, err := settings.NewPostgresStore(ctx, pool)
		if err != nil {
			slog.Error("failed to initialise settings store", "err", err)
			return 1
		}
		transcripts = pgTranscripts
		settingsStore = pgSettings
		slog.Info("postgres stores ready")
	} else {
		slog.Info("no POSTGRES_DSN set, using in-memory stores")
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	speechProc, err := buildSpeechProcessor(cfg)
	if err != nil {
		slog.Error("failed to create speech processor", "err", err)
		return 1
	}

	llmProvider, err := buildLLMProvider(cfg)
	if err != nil {
		slog.Error("failed to create llm provider", "err", err)
		return 1
	}

	imageGen, err := imageopenai.New(cfg.OpenAI.APIKey, cfg.OpenAI.ImageModel, imageOptions(cfg)...)
	if err != nil {
		slog.Error("failed to create image generator", "err", err)
		return 1
	}

	uploader, err := upload.New(cfg.OpenAI.APIKey, uploadOptions(cfg)...)
	if err != nil {
		slog.Error("failed to create uploader", "err", err)
		return 1
	}

	// ── Discord ───────────────────────────────────────────────────────────────
	bot, err := discordbot.New(ctx, discordbot.Config{
		Token:       cfg.Discord.Token,
		GuildID:     cfg.Discord.GuildID,
		AdminRoleID: cfg.Discord.AdminRoleID,
	})
	if err != nil {
		slog.Error("failed to connect to discord", "err", err)
		return 1
	}
	defer func() {
		if err := bot.Close(); err != nil {
			slog.Warn("discord close error", "err", err)
		}
	}()

	// ── Voice pipeline ────────────────────────────────────────────────────────
	voiceOpts := []voice.Option{
		voice.WithRoster(bot.Roster()),
		voice.WithMetrics(metrics),
	}
	if cfg.Whisper.ModelPath != "" {
		transcriber, err := whisper.New(cfg.Whisper.ModelPath, whisper.WithLanguage(cfg.Whisper.Language))
		if err != nil {
			slog.Error("failed to load whisper model", "err", err)
			return 1
		}
		guarded := resilience.NewTranscriberFallback(transcriber, "whisper", resilience.FallbackConfig{})
		voiceOpts = append(voiceOpts, voice.WithTranscription(guarded, transcripts))
		slog.Info("utterance transcription enabled", "model", cfg.Whisper.ModelPath)
	}

	manager := voice.NewManager(bot.Platform(), speechProc, voice.Config{
		Enabled:          cfg.Voice.Enabled,
		AutoJoin:         cfg.Voice.AutoJoin,
		SilenceThreshold: cfg.Voice.SilenceDuration.Duration(),
		SampleRate:       cfg.Voice.SampleRate,
	}, voiceOpts...)

	// ── Text chat ─────────────────────────────────────────────────────────────
	personas, err := loadPersonas(cfg.Chat.PersonaFile)
	if err != nil {
		slog.Error("failed to load personas", "err", err)
		return 1
	}
	chatSvc := chat.NewService(llmProvider, personas,
		chat.WithSettings(settingsStore),
		chat.WithMetrics(metrics),
		chat.WithHistoryLimits(cfg.Chat.HistorySize, cfg.Chat.HistoryAge),
	)

	// ── Wiring ────────────────────────────────────────────────────────────────
	bot.RegisterVoiceHandlers(manager)
	bot.RegisterChatHandler(chatSvc, uploader)

	router := bot.Router()
	commands.NewVoiceCommands(manager, bot.Permissions()).Register(router)
	commands.NewChatCommands(chatSvc, settingsStore, bot.Permissions()).Register(router)
	commands.NewDrawCommands(imageGen).Register(router)
	commands.NewHelpCommands().Register(router)

	slog.Info("parley ready, press Ctrl+C to shut down")

	// ── Run loops ─────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error { return manager.Run(gctx) })

	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, bot, pool) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// buildSpeechProcessor creates the OpenAI voice-to-voice processor behind a
// circuit breaker so a flapping API does not burn every utterance.
func buildSpeechProcessor(cfg *config.Config) (*resilience.SpeechFallback, error) {
	var opts []speechopenai.Option
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, speechopenai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.SpeechVoice != "" {
		opts = append(opts, speechopenai.WithVoice(cfg.OpenAI.SpeechVoice))
	}

	proc, err := speechopenai.New(cfg.OpenAI.APIKey, cfg.OpenAI.SpeechModel, opts...)
	if err != nil {
		return nil, err
	}
	return resilience.NewSpeechFallback(proc, "openai", resilience.FallbackConfig{}), nil
}

// buildLLMProvider creates the chat backend. The openai backend uses the
// native client so reasoning effort settings reach the API; everything else
// goes through any-llm. A configured fallback backend is chained behind the
// primary with per-backend circuit breakers.
func buildLLMProvider(cfg *config.Config) (llm.Provider, error) {
	primary, err := newChatBackend(cfg.LLM.Backend, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("chat backend ready", "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)

	if cfg.LLM.FallbackBackend == "" {
		return primary, nil
	}

	fallback, err := newChatBackend(cfg.LLM.FallbackBackend, cfg.LLM.FallbackModel, cfg.LLM.APIKey, "")
	if err != nil {
		return nil, fmt.Errorf("fallback backend: %w", err)
	}

	group := resilience.NewLLMFallback(primary, cfg.LLM.Backend, resilience.FallbackConfig{})
	group.AddFallback(cfg.LLM.FallbackBackend, fallback)
	slog.Info("chat failover enabled", "fallback", cfg.LLM.FallbackBackend, "model", cfg.LLM.FallbackModel)
	return group, nil
}

func newChatBackend(backend, model, apiKey, baseURL string) (llm.Provider, error) {
	if backend == "openai" {
		var opts []llmopenai.Option
		if baseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(baseURL))
		}
		return llmopenai.New(apiKey, model, opts...)
	}

	var opts []anyllmlib.Option
	if apiKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(baseURL))
	}
	return anyllm.New(backend, model, opts...)
}

func imageOptions(cfg *config.Config) []imageopenai.Option {
	var opts []imageopenai.Option
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, imageopenai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return opts
}

func uploadOptions(cfg *config.Config) []upload.Option {
	var opts []upload.Option
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, upload.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return opts
}

func loadPersonas(path string) (*chat.Personas, error) {
	if path == "" {
		return chat.NewPersonas(), nil
	}
	return chat.LoadPersonas(path)
}

// serveMetrics runs the HTTP endpoint with Prometheus metrics and the
// liveness and readiness probes. It shuts down when ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, bot *discordbot.Bot, pool *pgxpool.Pool) error {
	checkers := []health.Checker{
		health.Gateway(func() bool { return bot.Session().DataReady }),
	}
	if pool != nil {
		checkers = append(checkers, health.Postgres(pool))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint listening", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown error", "err", err)
	}
	return ctx.Err()
}
