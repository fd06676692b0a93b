package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/manifest"
	"github.com/hearlab/clarion/internal/signal"
	"github.com/hearlab/clarion/internal/wavio"
)

// PipelineOpts reuses the dataset layout of the scoring driver.
type PipelineOpts struct {
	// Dataset names the manifest at {MetadataDir}/{Dataset}.json.
	Dataset string
	// MetadataDir holds the manifest and listeners.json.
	MetadataDir string
	// SceneDir holds the scene references, {scene}_target_ref.wav.
	SceneDir string
	// ExpDir is the experiment output root; enhanced signals land in
	// {ExpDir}/enhanced_signals.
	ExpDir string
}

// Pipeline runs the baseline enhancement over every (scene, listener)
// pair named by the manifest, writing one HA-output WAV per pair.
type Pipeline struct {
	opts      PipelineOpts
	amp       *Amplifier
	listeners *listener.Store
	logger    *slog.Logger
}

// NewPipeline creates an enhancement pipeline.
func NewPipeline(opts PipelineOpts, amp *Amplifier, listeners *listener.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:      opts,
		amp:       amp,
		listeners: listeners,
		logger:    logger,
	}
}

// OutputPath returns where the enhanced signal for a scene/listener pair
// is written: {exp_dir}/enhanced_signals/{scene}_{listener}_HA-output.wav.
func (p *Pipeline) OutputPath(scene, lst string) string {
	return filepath.Join(p.opts.ExpDir, "enhanced_signals",
		fmt.Sprintf("%s_%s_HA-output.wav", scene, lst))
}

// Run enhances every distinct scene/listener pair in the manifest in
// order. Existing outputs are overwritten; any failure aborts the run.
// It returns the number of signals written.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	manifestPath := filepath.Join(p.opts.MetadataDir, p.opts.Dataset+".json")
	records, err := manifest.Load(manifestPath)
	if err != nil {
		return 0, err
	}

	outDir := filepath.Join(p.opts.ExpDir, "enhanced_signals")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	p.logger.Info("enhancing signals",
		slog.Int("manifest", len(records)),
		slog.String("out_dir", outDir),
	)

	written := 0
	done := map[string]struct{}{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		parsed, err := signal.Parse(rec.Signal)
		if err != nil {
			return written, err
		}

		pair := parsed.Scene + "_" + parsed.Listener
		if _, ok := done[pair]; ok {
			continue
		}
		done[pair] = struct{}{}

		if err := p.enhancePair(parsed.Scene, parsed.Listener); err != nil {
			return written, fmt.Errorf("enhance %s: %w", pair, err)
		}
		written++

		p.logger.Debug("enhanced signal",
			slog.String("scene", parsed.Scene),
			slog.String("listener", parsed.Listener),
		)
	}

	p.logger.Info("enhancement finished", slog.Int("written", written))
	return written, nil
}

// enhancePair amplifies one scene reference for one listener.
func (p *Pipeline) enhancePair(scene, lst string) error {
	audiogram, err := p.listeners.Get(lst)
	if err != nil {
		return err
	}

	ref, err := wavio.ReadStereo(filepath.Join(p.opts.SceneDir, scene+"_target_ref.wav"))
	if err != nil {
		return err
	}

	enhanced, err := p.amp.Apply(ref, audiogram)
	if err != nil {
		return err
	}

	return wavio.WriteStereo(p.OutputPath(scene, lst), enhanced)
}
