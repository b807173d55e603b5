// Package app wires configuration, storage, provider chains and the
// HTTP surface into a runnable service.
package app

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"ai-interview-service/internal/config"
	"ai-interview-service/internal/events"
	apihttp "ai-interview-service/internal/http"
	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/feedback"
	"ai-interview-service/internal/service/interview"
	"ai-interview-service/internal/service/llm"
	"ai-interview-service/internal/service/stt"
	sttgoogle "ai-interview-service/internal/service/stt/google"
	sttmock "ai-interview-service/internal/service/stt/mock"
	sttwhisper "ai-interview-service/internal/service/stt/whisper"
	"ai-interview-service/internal/store"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Cfg         *config.Config

	Store     *store.Postgres
	Publisher *events.Publisher
	Interview *interview.Service
	Handler   nethttp.Handler
}

// New constructs the application from the provided configuration,
// connecting to Postgres and assembling the provider fallback chains.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	appLogger := logging.WithComponent("application")

	st, err := store.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	publisher := events.New(&events.Config{
		Enabled:       cfg.Kafka.Enabled,
		Brokers:       cfg.Kafka.Brokers,
		TopicResponse: cfg.Kafka.TopicResponse,
		TopicFeedback: cfg.Kafka.TopicFeedback,
		Principal:     cfg.Kafka.Principal,
	})

	transcriber, err := buildTranscriber(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	svc := interview.New(
		st,
		transcriber,
		llm.NewChain(llm.NewClaude(cfg.Providers.AnthropicAPIKey), llm.NewOpenAI(cfg.Providers.OpenAIAPIKey), llm.NewStatic()),
		feedback.NewChain(cfg.Providers.GeminiAPIKey),
		publisher,
		metrics.DefaultMetrics,
	)

	a := &Application{
		StartupTime: time.Now().UTC(),
		Cfg:         cfg,
		Store:       st,
		Publisher:   publisher,
		Interview:   svc,
		Handler:     apihttp.NewRouter(svc, metrics.DefaultMetrics),
	}

	appLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("principal", cfg.Service.Principal).
		Msg("AI interview service application created")
	return a, nil
}

// buildTranscriber assembles the transcription chain in preference
// order. The Google client is only constructed when a key is present;
// the mock provider terminates the chain so a turn never fails on
// transcription alone.
func buildTranscriber(ctx context.Context, cfg *config.Config) (*stt.Chain, error) {
	providers := []stt.Provider{sttwhisper.New(cfg.Providers.OpenAIAPIKey)}

	if cfg.Providers.GoogleCloudAPIKey != "" {
		google, err := sttgoogle.New(ctx, cfg.Providers.GoogleCloudAPIKey)
		if err != nil {
			return nil, fmt.Errorf("create google speech client: %w", err)
		}
		providers = append(providers, google)
	}

	providers = append(providers, sttmock.New())
	return stt.NewChain(providers...), nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := logging.WithComponent("application")
	shutdownLogger.Info().Msg("AI interview service shutting down")

	if err := a.Publisher.Close(); err != nil {
		shutdownLogger.Error().Err(err).Msg("Failed to close Kafka publisher")
	}
	a.Store.Close()
}
