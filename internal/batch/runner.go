// Package batch provides the resumable HASPI batch driver. It walks the
// dataset manifest in order, skips signals already present in the results
// checkpoint store, restricts itself to its shard of the remaining work
// and appends one result per scored signal immediately, so a crash loses
// at most the in-flight computation.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"github.com/hearlab/clarion/internal/haspi"
	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/manifest"
	"github.com/hearlab/clarion/internal/results"
	"github.com/hearlab/clarion/internal/signal"
	"github.com/hearlab/clarion/internal/wavio"
)

// Opts configures one batch run.
type Opts struct {
	// Dataset is the manifest name; the manifest is read from
	// {MetadataDir}/{Dataset}.json.
	Dataset string
	// MetadataDir holds the manifest and listeners.json.
	MetadataDir string
	// SignalDir holds the processed signals, {signal}.wav.
	SignalDir string
	// SceneDir holds the references, {scene}_target_ref.wav.
	SceneDir string
	// Batch and NBatches select this run's shard of the remaining work.
	Batch    int
	NBatches int
	// SetRandomSeed derives a per-signal random generator from the signal
	// name before scoring, making stochastic model parts reproducible.
	SetRandomSeed bool
}

// Summary reports what a run did.
type Summary struct {
	// Manifest is the total number of records in the manifest.
	Manifest int
	// Skipped is how many signals already had scores and were not recomputed.
	Skipped int
	// Scored is how many signals this run scored and appended.
	Scored int
}

// Runner drives one shard of a batch scoring run. Scoring is synchronous
// and strictly in manifest order; the checkpoint store provides the only
// recovery guarantee.
type Runner struct {
	opts      Opts
	store     results.Store
	scorer    haspi.Scorer
	listeners *listener.Store
	logger    *slog.Logger
}

// NewRunner creates a batch runner.
func NewRunner(opts Opts, store results.Store, scorer haspi.Scorer, listeners *listener.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opts:      opts,
		store:     store,
		scorer:    scorer,
		listeners: listeners,
		logger:    logger,
	}
}

// Run loads the manifest, filters out already-scored signals, selects
// this run's shard and scores it. Each result is appended to the store
// before the next signal starts. Any failure aborts the run; results
// appended so far stay durable and are skipped on the next invocation.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	manifestPath := filepath.Join(r.opts.MetadataDir, r.opts.Dataset+".json")
	records, err := manifest.Load(manifestPath)
	if err != nil {
		return Summary{}, err
	}

	remaining := manifest.Exclude(records, r.store.Contains)
	shard, err := manifest.Shard(remaining, r.opts.Batch, r.opts.NBatches)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Manifest: len(records),
		Skipped:  len(records) - len(remaining),
	}

	r.logger.Info("computing scores",
		slog.Int("manifest", summary.Manifest),
		slog.Int("skipped", summary.Skipped),
		slog.Int("selected", len(shard)),
		slog.Int("batch", r.opts.Batch),
		slog.Int("n_batches", r.opts.NBatches),
	)

	for _, rec := range shard {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var rng *rand.Rand
		if r.opts.SetRandomSeed {
			rng = signal.NewRand(rec.Signal)
		}

		score, err := r.scoreSignal(ctx, rec.Signal, rng)
		if err != nil {
			return summary, fmt.Errorf("score %s: %w", rec.Signal, err)
		}

		// append before moving on so interruption never loses this score
		if err := r.store.Append(results.Record{Signal: rec.Signal, HASPI: score}); err != nil {
			return summary, err
		}
		summary.Scored++

		r.logger.Debug("scored signal",
			slog.String("signal", rec.Signal),
			slog.Float64("haspi", score),
		)
	}

	r.logger.Info("run finished",
		slog.Int("scored", summary.Scored),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// scoreSignal resolves a signal's scene and listener, loads the audiogram
// and both waveforms, and hands them to the scorer.
func (r *Runner) scoreSignal(ctx context.Context, name string, rng *rand.Rand) (float64, error) {
	parsed, err := signal.Parse(name)
	if err != nil {
		return 0, err
	}

	audiogram, err := r.listeners.Get(parsed.Listener)
	if err != nil {
		return 0, err
	}

	proc, err := wavio.ReadStereo(filepath.Join(r.opts.SignalDir, name+".wav"))
	if err != nil {
		return 0, err
	}
	ref, err := wavio.ReadStereo(filepath.Join(r.opts.SceneDir, parsed.Scene+"_target_ref.wav"))
	if err != nil {
		return 0, err
	}

	return r.scorer.Score(ctx, ref, proc, audiogram, rng)
}
