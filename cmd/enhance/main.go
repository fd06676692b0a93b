// Package main provides the baseline enhancement command: it amplifies
// each scene reference for each listener in the manifest with a NAL-R
// style prescription and writes the HA outputs to the experiment folder.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hearlab/clarion/internal/bootstrap"
	"github.com/hearlab/clarion/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the recipe config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting baseline enhancement",
		slog.String("dataset", cfg.Dataset),
		slog.String("exp_dir", cfg.Path.ExpDir),
	)

	pipeline, err := bootstrap.NewEnhancePipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	written, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("enhancement complete", slog.Int("written", written))
	return nil
}
