// Package main provides the HASPI batch scoring command. It scores one
// shard of a dataset manifest and appends results to a resumable JSONL
// log; re-running skips signals that already have scores.
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

	logger.Info("starting HASPI batch scoring",
		slog.String("dataset", cfg.Dataset),
		slog.Int("batch", cfg.ComputeHASPI.Batch),
		slog.Int("n_batches", cfg.ComputeHASPI.NBatches),
		slog.Bool("set_random_seed", cfg.ComputeHASPI.SetRandomSeed),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	deps, err := bootstrap.NewScoringDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Store.Close()

	// interruption is safe: appended results survive and are skipped on
	// the next invocation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := deps.Runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("scoring complete",
		slog.Int("scored", summary.Scored),
		slog.Int("skipped", summary.Skipped),
		slog.String("results", deps.Store.Path()),
	)

	location, err := deps.Publisher.Publish(ctx, deps.ResultsName, deps.Store.Path())
	if err != nil {
		return fmt.Errorf("publish results: %w", err)
	}
	logger.Info("results published", slog.String("location", location))

	return nil
}
