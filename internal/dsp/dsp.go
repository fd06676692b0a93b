// Package dsp provides the filter and envelope primitives used by the
// intelligibility scorer and the enhancement pipeline: second-order
// band-pass sections, envelope extraction and envelope correlation.
package dsp

import "math"

// Biquad is a normalized second-order IIR section (direct form I).
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// NewBandpass designs a constant-peak-gain band-pass biquad centered at
// center Hz for the given sample rate (RBJ audio EQ cookbook). The center
// frequency must be below Nyquist; callers skip bands that are not.
func NewBandpass(sampleRate, center, q float64) Biquad {
	w0 := 2 * math.Pi * center / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return Biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

// Filter runs the section over x and returns the filtered signal.
// The filter starts from zero state.
func (f Biquad) Filter(x []float64) []float64 {
	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := f.b0*v + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// Envelope extracts the amplitude envelope of x: full-wave rectification
// followed by a one-pole low-pass at cutoff Hz.
func Envelope(x []float64, sampleRate, cutoff float64) []float64 {
	alpha := 1 - math.Exp(-2*math.Pi*cutoff/sampleRate)
	out := make([]float64, len(x))
	var state float64
	for i, v := range x {
		state += alpha * (math.Abs(v) - state)
		out[i] = state
	}
	return out
}

// Correlation returns the Pearson correlation of a and b over their
// common length. Degenerate inputs (fewer than two samples, or a signal
// with no variance) correlate to zero.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// RMS returns the root-mean-square level of x, or zero for empty input.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
