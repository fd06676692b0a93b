package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
dataset: valid
path:
  metadata_dir: /data/metadata
  signal_dir: /data/signals
  scene_dir: /data/scenes
compute_haspi:
  batch: 2
  n_batches: 4
  set_random_seed: true
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "valid", cfg.Dataset)
	assert.Equal(t, "/data/metadata", cfg.Path.MetadataDir)
	assert.Equal(t, "/data/signals", cfg.Path.SignalDir)
	assert.Equal(t, "/data/scenes", cfg.Path.SceneDir)
	assert.Equal(t, 2, cfg.ComputeHASPI.Batch)
	assert.Equal(t, 4, cfg.ComputeHASPI.NBatches)
	assert.True(t, cfg.ComputeHASPI.SetRandomSeed)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
dataset: valid
path:
  metadata_dir: /m
  signal_dir: /s
  scene_dir: /c
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.ComputeHASPI.Batch)
	assert.Equal(t, 1, cfg.ComputeHASPI.NBatches)
	assert.Equal(t, ".", cfg.Path.ExpDir)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.ComputeHASPI.SetRandomSeed)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATASET", "test_set")
	t.Setenv("PATH_SIGNAL_DIR", "/override/signals")
	t.Setenv("COMPUTE_HASPI_BATCH", "3")
	t.Setenv("COMPUTE_HASPI_N_BATCHES", "8")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test_set", cfg.Dataset)
	assert.Equal(t, "/override/signals", cfg.Path.SignalDir)
	assert.Equal(t, "/data/metadata", cfg.Path.MetadataDir, "unset env keeps file value")
	assert.Equal(t, 3, cfg.ComputeHASPI.Batch)
	assert.Equal(t, 8, cfg.ComputeHASPI.NBatches)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "dataset: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	t.Run("missing dataset", func(t *testing.T) {
		cfg := base()
		cfg.Dataset = ""
		assert.ErrorIs(t, cfg.Validate(), ErrDatasetRequired)
	})

	t.Run("missing metadata dir", func(t *testing.T) {
		cfg := base()
		cfg.Path.MetadataDir = ""
		assert.ErrorIs(t, cfg.Validate(), ErrPathRequired)
	})

	t.Run("missing signal dir", func(t *testing.T) {
		cfg := base()
		cfg.Path.SignalDir = ""
		assert.ErrorIs(t, cfg.Validate(), ErrPathRequired)
	})

	t.Run("missing scene dir", func(t *testing.T) {
		cfg := base()
		cfg.Path.SceneDir = ""
		assert.ErrorIs(t, cfg.Validate(), ErrPathRequired)
	})

	t.Run("batch out of range", func(t *testing.T) {
		cfg := base()
		cfg.ComputeHASPI.Batch = 5
		cfg.ComputeHASPI.NBatches = 4
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidBatch)
	})
}

func TestPathHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data/metadata", "valid.json"), cfg.ManifestPath())
	assert.Equal(t, filepath.Join("/data/metadata", "listeners.json"), cfg.ListenersPath())
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.S3Enabled())

	cfg.S3.Bucket = "scores"
	assert.False(t, cfg.S3Enabled())

	cfg.S3.Region = "eu-west-1"
	assert.True(t, cfg.S3Enabled())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json", ""} {
		cfg := &Config{LogFormat: format, LogLevel: "debug"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	}
}
