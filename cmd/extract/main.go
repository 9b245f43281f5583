package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/health-record-extractor/internal/adapters/cli"
	"github.com/kirillkom/health-record-extractor/internal/bootstrap"
	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/extractor/document"
	"github.com/kirillkom/health-record-extractor/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries the JSON result lines.
	logger := logging.New(os.Stderr, "extract-cli", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context) (ports.DocumentExtractor, func(), error) {
		app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return app.Extractor, app.Close, nil
	}

	root := cli.NewRootCommand(factory, document.LoadFile)
	code := cli.Execute(ctx, root, os.Stderr)
	stop()
	os.Exit(code)
}
