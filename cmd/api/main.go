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

	httpadapter "github.com/kirillkom/health-record-extractor/internal/adapters/http"
	"github.com/kirillkom/health-record-extractor/internal/bootstrap"
	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/observability/logging"
	"github.com/kirillkom/health-record-extractor/internal/observability/metrics"
)

const serviceName = "extract-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithLogger(logger),
		bootstrap.WithObserver(httpMetrics),
		bootstrap.WithBreakerListener(httpMetrics.ObserveBreakerState),
	)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	routerOpts := []httpadapter.RouterOption{httpadapter.WithMetrics(httpMetrics)}
	if app.Audit != nil {
		routerOpts = append(routerOpts, httpadapter.WithAuditReader(app.Audit))
	}
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           httpadapter.NewRouter(cfg, app.Extractor, routerOpts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening",
			"port", cfg.APIPort,
			"extract_mode", cfg.ExtractMode,
			"provider_configured", !cfg.ProviderCredentials().Empty(),
			"audit_enabled", app.Audit != nil,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
