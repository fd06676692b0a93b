// Package haspi computes hearing-aid speech perception scores: a
// better-ear intelligibility index comparing a processed signal against a
// reference through a listener's hearing-loss profile.
//
// The metric analyses both signals in band-pass channels at the
// audiometric center frequencies, attenuates the processed path by the
// listener's hearing levels, extracts amplitude envelopes, correlates the
// envelopes per band and maps the audibility-weighted mean correlation to
// [0, 1] through a logistic function. The better ear wins.
package haspi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hearlab/clarion/internal/dsp"
	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/wavio"
)

// Static errors for score computation.
var (
	// ErrSampleRateMismatch is returned when reference and processed
	// signals have different sample rates.
	ErrSampleRateMismatch = errors.New("haspi: reference and processed sample rates differ")
	// ErrEmptySignal is returned when either signal carries no frames.
	ErrEmptySignal = errors.New("haspi: empty signal")
)

// Scorer is the scoring capability the batch driver depends on.
// The random generator drives the internal-noise dither; passing nil
// disables it, making the score fully deterministic.
type Scorer interface {
	Score(ctx context.Context, ref, proc *wavio.Stereo, audiogram listener.Audiogram, rng *rand.Rand) (float64, error)
}

// Opts tunes the ear model.
type Opts struct {
	// BandQ is the quality factor of the analysis band-pass filters.
	BandQ float64
	// EnvelopeCutoff is the envelope low-pass cutoff in Hz.
	EnvelopeCutoff float64
	// DitherLevel is the RMS of the internal noise added to the processed
	// path, modelling the limits of an impaired ear. Only applied when a
	// random generator is supplied.
	DitherLevel float64
	// LogisticMid and LogisticSlope shape the mapping from mean envelope
	// correlation to the final score.
	LogisticMid   float64
	LogisticSlope float64
}

// DefaultOpts returns the model parameters used by the challenge baseline.
func DefaultOpts() Opts {
	return Opts{
		BandQ:          1.4,
		EnvelopeCutoff: 32,
		DitherLevel:    1e-4,
		LogisticMid:    0.55,
		LogisticSlope:  8,
	}
}

// Compile-time check that BetterEar implements Scorer.
var _ Scorer = (*BetterEar)(nil)

// BetterEar scores each ear independently against its own audiogram and
// returns the higher of the two scores.
type BetterEar struct {
	opts Opts
}

// NewBetterEar creates a scorer with the given model parameters.
func NewBetterEar(opts Opts) *BetterEar {
	return &BetterEar{opts: opts}
}

// Score computes the better-ear intelligibility score in [0, 1].
// Reference and processed signals must share a sample rate; signals of
// different lengths are compared over their common prefix.
func (s *BetterEar) Score(ctx context.Context, ref, proc *wavio.Stereo, audiogram listener.Audiogram, rng *rand.Rand) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ref.SampleRate != proc.SampleRate {
		return 0, fmt.Errorf("%w: %d vs %d", ErrSampleRateMismatch, ref.SampleRate, proc.SampleRate)
	}
	if ref.Frames() == 0 || proc.Frames() == 0 {
		return 0, ErrEmptySignal
	}
	if err := audiogram.Validate(); err != nil {
		return 0, err
	}

	fs := float64(ref.SampleRate)
	left := s.earScore(ref.Left, proc.Left, fs, audiogram.LevelsLeft, audiogram.CFs, rng)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	right := s.earScore(ref.Right, proc.Right, fs, audiogram.LevelsRight, audiogram.CFs, rng)

	return math.Max(left, right), nil
}

// earScore runs the single-ear model: band analysis, impairment
// attenuation plus internal noise on the processed path, envelope
// correlation per band, audibility-weighted mean, logistic mapping.
func (s *BetterEar) earScore(ref, proc []float64, fs float64, levels, cfs []float64, rng *rand.Rand) float64 {
	n := len(ref)
	if len(proc) < n {
		n = len(proc)
	}
	ref = ref[:n]
	proc = proc[:n]

	var weighted, totalWeight float64
	for i, cf := range cfs {
		// bands at or above Nyquist carry no information at this rate
		if cf >= 0.45*fs {
			continue
		}

		band := dsp.NewBandpass(fs, cf, s.opts.BandQ)
		refBand := band.Filter(ref)
		procBand := band.Filter(proc)

		// hearing loss attenuates the processed path; the internal noise
		// floor stays, so heavily attenuated bands decorrelate
		gain := math.Pow(10, -levels[i]/20)
		for j := range procBand {
			procBand[j] *= gain
			if rng != nil {
				procBand[j] += s.opts.DitherLevel * rng.NormFloat64()
			}
		}

		refEnv := dsp.Envelope(refBand, fs, s.opts.EnvelopeCutoff)
		procEnv := dsp.Envelope(procBand, fs, s.opts.EnvelopeCutoff)

		corr := dsp.Correlation(refEnv, procEnv)
		if corr < 0 {
			corr = 0
		}

		weight := math.Pow(10, -levels[i]/40)
		weighted += weight * corr
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return logistic(weighted/totalWeight, s.opts.LogisticMid, s.opts.LogisticSlope)
}

// logistic squashes a mean correlation into (0, 1).
func logistic(x, mid, slope float64) float64 {
	return 1 / (1 + math.Exp(-slope*(x-mid)))
}
