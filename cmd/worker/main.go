package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/health-record-extractor/internal/bootstrap"
	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/usecase"
	"github.com/kirillkom/health-record-extractor/internal/observability/logging"
	"github.com/kirillkom/health-record-extractor/internal/observability/metrics"
)

const serviceName = "extract-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithLogger(logger),
		bootstrap.WithObserver(workerMetrics),
		bootstrap.WithBreakerListener(workerMetrics.ObserveBreakerState),
		bootstrap.WithQueue(),
	)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if cfg.ProviderCredentials().Empty() {
		slog.Warn("worker_without_provider", "hint", "set GEMINI_API_KEY, OPENAI_API_KEY or OLLAMA_URL")
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	jobs := usecase.NewExtractionJobHandler(app.Extractor)
	handle := func(jobCtx context.Context, job domain.ExtractionJob) domain.ExtractionReply {
		start := time.Now()
		workerMetrics.StartJob()
		if !job.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, start.Sub(job.EnqueuedAt))
		}
		reply := jobs.Handle(jobCtx, job)
		workerMetrics.FinishJob(serviceName, time.Since(start), reply.ErrorKind)
		return reply
	}

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "concurrency", cfg.WorkerConcurrency)
	if err := app.Queue.ServeExtractions(ctx, handle); err != nil {
		slog.Error("worker_serve_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
