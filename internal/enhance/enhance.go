// Package enhance provides the baseline hearing-aid enhancement pipeline:
// a NAL-R style prescription amplifier that shapes a scene signal to a
// listener's audiogram and writes the amplified output alongside the
// experiment results.
package enhance

import (
	"math"

	"github.com/hearlab/clarion/internal/dsp"
	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/wavio"
)

// nalrCorrections are the frequency-dependent dB terms of the NAL-R
// prescription rule, keyed by audiometric frequency.
var nalrCorrections = map[float64]float64{
	250:  -17,
	500:  -8,
	1000: 1,
	2000: -1,
	3000: -2,
	4000: -2,
	6000: -2,
	8000: -2,
}

// Opts tunes the amplifier.
type Opts struct {
	// BandQ is the quality factor of the gain-shaping band filters.
	BandQ float64
	// SoftClip applies a tanh limiter to keep the amplified signal inside
	// [-1, 1] without hard clipping.
	SoftClip bool
}

// DefaultOpts returns the baseline amplifier settings.
func DefaultOpts() Opts {
	return Opts{
		BandQ:    1.4,
		SoftClip: true,
	}
}

// Amplifier applies NAL-R style insertion gains to stereo signals.
type Amplifier struct {
	opts Opts
}

// NewAmplifier creates an amplifier with the given settings.
func NewAmplifier(opts Opts) *Amplifier {
	return &Amplifier{opts: opts}
}

// insertionGains computes per-band insertion gains in dB for one ear.
// NAL-R: IG(f) = 0.05*(HL500 + HL1000 + HL2000) + 0.31*HL(f) + k(f),
// floored at zero so normal hearing passes through unamplified.
func insertionGains(levels, cfs []float64) []float64 {
	var x float64
	for i, cf := range cfs {
		switch cf {
		case 500, 1000, 2000:
			x += 0.05 * levels[i]
		}
	}

	gains := make([]float64, len(cfs))
	for i, cf := range cfs {
		k, ok := nalrCorrections[cf]
		if !ok {
			k = nearestCorrection(cf)
		}
		ig := x + 0.31*levels[i] + k
		if ig < 0 {
			ig = 0
		}
		gains[i] = ig
	}
	return gains
}

// nearestCorrection returns the correction of the closest tabulated
// frequency for audiograms measured off the standard grid.
func nearestCorrection(cf float64) float64 {
	best := math.MaxFloat64
	var k float64
	for f, corr := range nalrCorrections {
		if d := math.Abs(f - cf); d < best {
			best = d
			k = corr
		}
	}
	return k
}

// Apply amplifies a stereo signal for a listener. Each ear gets its own
// prescription derived from that ear's audiogram levels.
func (a *Amplifier) Apply(sig *wavio.Stereo, audiogram listener.Audiogram) (*wavio.Stereo, error) {
	if err := audiogram.Validate(); err != nil {
		return nil, err
	}

	fs := float64(sig.SampleRate)
	return &wavio.Stereo{
		SampleRate: sig.SampleRate,
		Left:       a.amplifyEar(sig.Left, fs, audiogram.LevelsLeft, audiogram.CFs),
		Right:      a.amplifyEar(sig.Right, fs, audiogram.LevelsRight, audiogram.CFs),
	}, nil
}

// amplifyEar adds the prescribed extra gain per band on top of the dry
// signal, then optionally soft-limits the sum.
func (a *Amplifier) amplifyEar(x []float64, fs float64, levels, cfs []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)

	gains := insertionGains(levels, cfs)
	for i, cf := range cfs {
		if cf >= 0.45*fs || gains[i] == 0 {
			continue
		}
		extra := math.Pow(10, gains[i]/20) - 1
		band := dsp.NewBandpass(fs, cf, a.opts.BandQ).Filter(x)
		for j := range out {
			out[j] += extra * band[j]
		}
	}

	if a.opts.SoftClip {
		for j := range out {
			out[j] = math.Tanh(out[j])
		}
	}
	return out
}
