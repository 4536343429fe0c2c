package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Paraschamoli/Bindu/internal/app"
	"github.com/Paraschamoli/Bindu/internal/config"
	"github.com/Paraschamoli/Bindu/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bindu-probe failed: %v\n", err)
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

	logger.InfoObj("bindu-probe starting", "config", map[string]any{
		"app_env":      cfg.Env,
		"base_url":     cfg.BaseURL,
		"targets_file": cfg.TargetsFile,
		"interval":     cfg.ProbeInterval.String(),
		"max_retries":  cfg.HTTPMaxRetries,
		"storage_type": cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober, err := app.NewProber(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize prober", "error", err.Error())
		return err
	}

	if err := prober.Run(ctx); err != nil {
		return fmt.Errorf("prober run: %w", err)
	}
	return nil
}
