// Package bootstrap provides dependency initialization for the recipe
// commands.
package bootstrap

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hearlab/clarion/internal/batch"
	"github.com/hearlab/clarion/internal/config"
	"github.com/hearlab/clarion/internal/enhance"
	"github.com/hearlab/clarion/internal/haspi"
	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/results"
	"github.com/hearlab/clarion/internal/storage"
)

// ScoringDeps holds everything the haspi command needs for one run.
type ScoringDeps struct {
	Runner *batch.Runner
	Store  *results.FileStore
	// ResultsName is the log's file name, also used as the publish key.
	ResultsName string
	// Publisher uploads the results log to S3 when configured, and
	// otherwise copies it into the experiment directory.
	Publisher storage.Publisher
}

// NewScoringDeps wires the batch scoring pipeline from configuration.
func NewScoringDeps(cfg *config.Config, logger *slog.Logger) (*ScoringDeps, error) {
	listeners, err := listener.LoadStore(cfg.ListenersPath())
	if err != nil {
		return nil, err
	}
	logger.Info("loaded listener audiograms",
		slog.Int("listeners", listeners.Len()),
		slog.String("path", cfg.ListenersPath()),
	)

	name := results.FileName(cfg.Dataset, cfg.ComputeHASPI.Batch, cfg.ComputeHASPI.NBatches)
	store, err := results.OpenFile(filepath.Join(cfg.Path.ExpDir, name))
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(
		batch.Opts{
			Dataset:       cfg.Dataset,
			MetadataDir:   cfg.Path.MetadataDir,
			SignalDir:     cfg.Path.SignalDir,
			SceneDir:      cfg.Path.SceneDir,
			Batch:         cfg.ComputeHASPI.Batch,
			NBatches:      cfg.ComputeHASPI.NBatches,
			SetRandomSeed: cfg.ComputeHASPI.SetRandomSeed,
		},
		store,
		haspi.NewBetterEar(haspi.DefaultOpts()),
		listeners,
		logger,
	)

	deps := &ScoringDeps{
		Runner:      runner,
		Store:       store,
		ResultsName: name,
	}

	if cfg.S3Enabled() {
		pub, err := storage.NewS3Publisher(storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create S3 publisher: %w", err)
		}
		logger.Info("S3 publishing configured",
			slog.String("bucket", cfg.S3.Bucket),
			slog.String("region", cfg.S3.Region),
		)
		deps.Publisher = pub
	} else {
		pub, err := storage.NewLocalPublisher(cfg.Path.ExpDir)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create local publisher: %w", err)
		}
		deps.Publisher = pub
	}

	return deps, nil
}

// NewEnhancePipeline wires the baseline enhancement pipeline from
// configuration.
func NewEnhancePipeline(cfg *config.Config, logger *slog.Logger) (*enhance.Pipeline, error) {
	listeners, err := listener.LoadStore(cfg.ListenersPath())
	if err != nil {
		return nil, err
	}

	return enhance.NewPipeline(
		enhance.PipelineOpts{
			Dataset:     cfg.Dataset,
			MetadataDir: cfg.Path.MetadataDir,
			SceneDir:    cfg.Path.SceneDir,
			ExpDir:      cfg.Path.ExpDir,
		},
		enhance.NewAmplifier(enhance.DefaultOpts()),
		listeners,
		logger,
	), nil
}
