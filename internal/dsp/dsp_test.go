package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(freq float64, rate, frames int) []float64 {
	out := make([]float64, frames)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return out
}

func TestBandpass_PassesCenterRejectsFar(t *testing.T) {
	const rate = 16000.0
	f := NewBandpass(rate, 1000, 1.4)

	inBand := f.Filter(tone(1000, int(rate), 8000))
	outOfBand := f.Filter(tone(6000, int(rate), 8000))

	// skip the transient at the start
	inRMS := RMS(inBand[1000:])
	outRMS := RMS(outOfBand[1000:])

	require.Greater(t, inRMS, 0.5)
	assert.Greater(t, inRMS, 4*outRMS, "in-band %f vs out-of-band %f", inRMS, outRMS)
}

func TestEnvelope_SettlesOnToneLevel(t *testing.T) {
	const rate = 16000.0
	env := Envelope(tone(1000, int(rate), 16000), rate, 32)

	// mean of |sin| is 2/pi; the envelope should settle near it
	tail := env[8000:]
	assert.InDelta(t, 2/math.Pi, mean(tail), 0.1)
	for _, v := range tail {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestCorrelation(t *testing.T) {
	a := tone(440, 16000, 4000)

	assert.InDelta(t, 1.0, Correlation(a, a), 1e-12)

	inverted := make([]float64, len(a))
	for i, v := range a {
		inverted[i] = -v
	}
	assert.InDelta(t, -1.0, Correlation(a, inverted), 1e-12)

	rng := rand.New(rand.NewSource(1))
	noise := make([]float64, len(a))
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}
	assert.InDelta(t, 0.0, Correlation(a, noise), 0.1)
}

func TestCorrelation_Degenerate(t *testing.T) {
	flat := make([]float64, 100)
	assert.Zero(t, Correlation(flat, tone(440, 16000, 100)))
	assert.Zero(t, Correlation(nil, nil))
	assert.Zero(t, Correlation([]float64{1}, []float64{1}))
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 1/math.Sqrt2, RMS(tone(1000, 16000, 16000)), 0.01)
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
