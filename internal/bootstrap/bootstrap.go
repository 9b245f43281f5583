package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
	"github.com/kirillkom/health-record-extractor/internal/core/usecase"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/llm/provider"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	// Local runs the pipeline in this process.
	Local *usecase.ExtractUseCase
	// Extractor serves inbound surfaces: Local bound to the configured
	// credentials, or the NATS round trip in nats mode.
	Extractor ports.DocumentExtractor
	// Queue is set in nats mode and for workers.
	Queue *nats.Queue
	// Audit is set when POSTGRES_DSN is configured.
	Audit *postgres.AuditRepository

	closeFn func()
}

type options struct {
	observer        ports.ExtractionObserver
	breakerListener resilience.StateListener
	logger          *slog.Logger
	withQueue       bool
}

type Option func(*options)

func WithObserver(observer ports.ExtractionObserver) Option {
	return func(o *options) { o.observer = observer }
}

// WithBreakerListener receives circuit breaker state changes of providers and NATS.
func WithBreakerListener(listener resilience.StateListener) Option {
	return func(o *options) { o.breakerListener = listener }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithQueue opens the NATS connection regardless of EXTRACT_MODE. Workers need it.
func WithQueue() Option {
	return func(o *options) { o.withQueue = true }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.ExtractMode != config.ExtractModeInline && cfg.ExtractMode != config.ExtractModeNATS {
		return nil, fmt.Errorf("unknown EXTRACT_MODE %q", cfg.ExtractMode)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	app := &App{Config: cfg}

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		audit, err := openAudit(ctx, db)
		if err != nil {
			closeAll()
			return nil, err
		}
		app.Audit = audit
	}

	executorOpts := []resilience.Option{
		resilience.WithLogger(o.logger),
		resilience.WithStateListener(o.breakerListener),
	}
	providerExecutor := resilience.NewExecutor(resilience.ProviderPolicy(cfg.ProviderBreakerEnabled), executorOpts...)
	transport := provider.NewHTTPTransport(cfg.ProviderTimeout+5*time.Second, providerExecutor)
	selector := provider.NewSelector(provider.Settings{
		GeminiBaseURL: cfg.GeminiBaseURL,
		GeminiModel:   cfg.GeminiModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		OllamaModel:   cfg.OllamaModel,
	})

	ucOpts := []usecase.ExtractOption{
		usecase.WithLogger(o.logger),
		usecase.WithProviderTimeout(cfg.ProviderTimeout),
	}
	if app.Audit != nil {
		ucOpts = append(ucOpts, usecase.WithAuditLog(app.Audit))
	}
	if o.observer != nil {
		ucOpts = append(ucOpts, usecase.WithObserver(o.observer))
	}
	app.Local = usecase.NewExtractUseCase(selector, transport, ucOpts...)
	app.Extractor = app.Local.WithCredentials(cfg.ProviderCredentials())

	if cfg.ExtractMode == config.ExtractModeNATS || o.withQueue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.BrokerPolicy(), executorOpts...),
			RequestTimeout:     cfg.NATSRequestTimeout,
			Concurrency:        cfg.WorkerConcurrency,
			JobTimeout:         cfg.ProviderTimeout + 15*time.Second,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init extraction queue: %w", err)
		}
		closers = append(closers, queue.Close)
		app.Queue = queue
	}
	if cfg.ExtractMode == config.ExtractModeNATS && !o.withQueue {
		app.Extractor = usecase.NewRemoteExtractUseCase(app.Queue)
	}

	app.closeFn = closeAll
	return app, nil
}

func openAudit(ctx context.Context, db *sql.DB) (*postgres.AuditRepository, error) {
	audit := postgres.NewAuditRepository(db)
	if err := audit.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return audit, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
