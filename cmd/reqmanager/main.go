package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-request-manager/internal/app"
	"github.com/samvad-hq/samvad-request-manager/internal/config"
	"github.com/samvad-hq/samvad-request-manager/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reqmanager failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("reqmanager starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, logger.Zap{S: log})
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err)
		return err
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run requests: %w", err)
	}

	return nil
}
