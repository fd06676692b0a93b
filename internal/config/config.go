// Package config provides configuration loading for the scoring and
// enhancement recipes: a hierarchical YAML file with environment-variable
// overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Static errors for configuration validation.
var (
	// ErrDatasetRequired is returned when no dataset name is configured.
	ErrDatasetRequired = errors.New("config: dataset is required")
	// ErrPathRequired is returned when a required directory is not configured.
	ErrPathRequired = errors.New("config: path is required")
	// ErrInvalidBatch is returned when the batch selection is out of range.
	ErrInvalidBatch = errors.New("config: batch must be in 1..n_batches")
)

// Paths holds the dataset directory layout.
type Paths struct {
	// MetadataDir contains the manifest and listeners.json.
	MetadataDir string `yaml:"metadata_dir" env:"METADATA_DIR, overwrite"`
	// SignalDir contains the processed signals, one WAV per signal name.
	SignalDir string `yaml:"signal_dir" env:"SIGNAL_DIR, overwrite"`
	// SceneDir contains the scene reference signals ({scene}_target_ref.wav).
	SceneDir string `yaml:"scene_dir" env:"SCENE_DIR, overwrite"`
	// ExpDir is where run outputs (results logs, enhanced signals) land.
	ExpDir string `yaml:"exp_dir" env:"EXP_DIR, overwrite"`
}

// ComputeHASPI holds the batch scoring settings.
type ComputeHASPI struct {
	// Batch is the 1-based shard to process.
	Batch int `yaml:"batch" env:"BATCH, overwrite"`
	// NBatches is the total number of shards the work is split into.
	NBatches int `yaml:"n_batches" env:"N_BATCHES, overwrite"`
	// SetRandomSeed derives a per-signal random generator from the signal
	// name so stochastic parts of the score are reproducible.
	SetRandomSeed bool `yaml:"set_random_seed" env:"SET_RANDOM_SEED, overwrite"`
}

// S3 holds optional settings for publishing results logs to S3.
type S3 struct {
	Bucket          string `yaml:"bucket" env:"S3_BUCKET, overwrite"`
	Region          string `yaml:"region" env:"S3_REGION, overwrite"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT, overwrite"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID, overwrite"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY, overwrite"`
}

// Config holds all configuration for the recipes.
type Config struct {
	// Dataset is the manifest name; the manifest lives at
	// {metadata_dir}/{dataset}.json.
	Dataset string `yaml:"dataset" env:"DATASET, overwrite"`

	Path         Paths        `yaml:"path" env:", prefix=PATH_"`
	ComputeHASPI ComputeHASPI `yaml:"compute_haspi" env:", prefix=COMPUTE_HASPI_"`
	S3           S3           `yaml:"s3"`

	// Logging settings
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT, overwrite"` // "json" or "text"
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL, overwrite"`   // "debug", "info", "warn", "error"
}

// Load reads a YAML config file, applies environment-variable overrides
// on top of it and fills in defaults. Validation is separate; call
// Validate before use.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values the file and environment left unset.
func (c *Config) applyDefaults() {
	if c.ComputeHASPI.Batch == 0 {
		c.ComputeHASPI.Batch = 1
	}
	if c.ComputeHASPI.NBatches == 0 {
		c.ComputeHASPI.NBatches = 1
	}
	if c.Path.ExpDir == "" {
		c.Path.ExpDir = "."
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that all required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return ErrDatasetRequired
	}
	if c.Path.MetadataDir == "" {
		return fmt.Errorf("%w: path.metadata_dir", ErrPathRequired)
	}
	if c.Path.SignalDir == "" {
		return fmt.Errorf("%w: path.signal_dir", ErrPathRequired)
	}
	if c.Path.SceneDir == "" {
		return fmt.Errorf("%w: path.scene_dir", ErrPathRequired)
	}
	if c.ComputeHASPI.NBatches < 1 ||
		c.ComputeHASPI.Batch < 1 ||
		c.ComputeHASPI.Batch > c.ComputeHASPI.NBatches {
		return fmt.Errorf("%w: got batch %d of %d",
			ErrInvalidBatch, c.ComputeHASPI.Batch, c.ComputeHASPI.NBatches)
	}
	return nil
}

// ManifestPath returns the location of the dataset manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Path.MetadataDir, c.Dataset+".json")
}

// ListenersPath returns the location of the listener metadata store.
func (c *Config) ListenersPath() string {
	return filepath.Join(c.Path.MetadataDir, "listeners.json")
}

// S3Enabled returns true if S3 publishing is configured.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.Region != ""
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for batch
// schedulers; otherwise human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
