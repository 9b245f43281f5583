package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/health-record-extractor/internal/adapters/mcp"
	"github.com/kirillkom/health-record-extractor/internal/bootstrap"
	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	// stdout is the MCP transport.
	logger := logging.New(os.Stderr, "extract-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(logger))
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer(mcpadapter.NewHandler(app.Extractor, logger), version)
	slog.Info("mcp_stdio_started", "extract_mode", cfg.ExtractMode, "provider_configured", !cfg.ProviderCredentials().Empty())
	if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
