package enhance

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearlab/clarion/internal/dsp"
	"github.com/hearlab/clarion/internal/listener"
	"github.com/hearlab/clarion/internal/wavio"
)

const testRate = 16000

func flatLoss(db float64) listener.Audiogram {
	return listener.Audiogram{
		LevelsLeft:  []float64{db, db, db, db},
		LevelsRight: []float64{db, db, db, db},
		CFs:         []float64{500, 1000, 2000, 4000},
	}
}

func testSignal(frames int) *wavio.Stereo {
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := range left {
		ts := float64(i) / testRate
		left[i] = 0.1 * math.Sin(2*math.Pi*1000*ts)
		right[i] = 0.1 * math.Sin(2*math.Pi*1000*ts)
	}
	return &wavio.Stereo{SampleRate: testRate, Left: left, Right: right}
}

func TestInsertionGains(t *testing.T) {
	// 50 dB flat loss at the standard frequencies
	levels := []float64{50, 50, 50, 50}
	cfs := []float64{500, 1000, 2000, 4000}

	gains := insertionGains(levels, cfs)
	require.Len(t, gains, 4)

	// X = 0.05*(50+50+50) = 7.5; IG(1000) = 7.5 + 15.5 + 1 = 24
	assert.InDelta(t, 24.0, gains[1], 1e-9)
	// IG(500) = 7.5 + 15.5 - 8 = 15
	assert.InDelta(t, 15.0, gains[0], 1e-9)
}

func TestInsertionGains_NormalHearingIsFloored(t *testing.T) {
	gains := insertionGains([]float64{0, 0, 0}, []float64{500, 1000, 2000})
	for i, g := range gains {
		assert.Zero(t, g, "band %d", i)
	}
}

func TestAmplifier_BoostsImpairedSignal(t *testing.T) {
	amp := NewAmplifier(DefaultOpts())
	in := testSignal(testRate / 2)

	out, err := amp.Apply(in, flatLoss(50))
	require.NoError(t, err)
	require.Equal(t, in.Frames(), out.Frames())

	assert.Greater(t, dsp.RMS(out.Left), 2*dsp.RMS(in.Left), "50 dB loss should be clearly amplified")
	for _, v := range out.Left {
		assert.LessOrEqual(t, math.Abs(v), 1.0, "soft clip keeps samples in range")
	}
}

func TestAmplifier_NormalHearingPassthrough(t *testing.T) {
	amp := NewAmplifier(Opts{BandQ: 1.4, SoftClip: false})
	in := testSignal(testRate / 2)

	out, err := amp.Apply(in, flatLoss(0))
	require.NoError(t, err)

	for i := 0; i < in.Frames(); i += 101 {
		assert.InDelta(t, in.Left[i], out.Left[i], 1e-12)
	}
}

func TestAmplifier_InvalidAudiogram(t *testing.T) {
	amp := NewAmplifier(DefaultOpts())
	_, err := amp.Apply(testSignal(100), listener.Audiogram{})
	assert.ErrorIs(t, err, listener.ErrInvalidAudiogram)
}

func pipelineFixtures(t *testing.T, signals []string) (PipelineOpts, *listener.Store) {
	t.Helper()
	root := t.TempDir()
	opts := PipelineOpts{
		Dataset:     "valid",
		MetadataDir: filepath.Join(root, "metadata"),
		SceneDir:    filepath.Join(root, "scenes"),
		ExpDir:      filepath.Join(root, "exp"),
	}
	require.NoError(t, os.MkdirAll(opts.MetadataDir, 0o750))
	require.NoError(t, os.MkdirAll(opts.SceneDir, 0o750))

	type record struct {
		Signal string `json:"signal"`
	}
	var records []record
	listeners := map[string]listener.Audiogram{}
	scenes := map[string]struct{}{}
	for _, sig := range signals {
		records = append(records, record{Signal: sig})
		parts := strings.SplitN(sig, "_", 3)
		listeners[parts[1]] = flatLoss(40)
		scenes[parts[0]] = struct{}{}
	}
	for scene := range scenes {
		require.NoError(t, wavio.WriteStereo(
			filepath.Join(opts.SceneDir, scene+"_target_ref.wav"), testSignal(testRate/2)))
	}

	manifestData, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(opts.MetadataDir, "valid.json"), manifestData, 0o600))
	listenersData, err := json.Marshal(listeners)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(opts.MetadataDir, "listeners.json"), listenersData, 0o600))

	store, err := listener.LoadStore(filepath.Join(opts.MetadataDir, "listeners.json"))
	require.NoError(t, err)
	return opts, store
}

func TestPipeline_Run(t *testing.T) {
	opts, listeners := pipelineFixtures(t, []string{"S0001_L0001_E001", "S0001_L0001_E002", "S0002_L0001_E001"})
	p := NewPipeline(opts, NewAmplifier(DefaultOpts()), listeners, nil)

	written, err := p.Run(context.Background())
	require.NoError(t, err)
	// two distinct scene/listener pairs, the E002 system repeats one
	assert.Equal(t, 2, written)

	out := p.OutputPath("S0001", "L0001")
	require.FileExists(t, out)

	sig, err := wavio.ReadStereo(out)
	require.NoError(t, err)
	assert.Equal(t, testRate, sig.SampleRate)
	assert.Greater(t, dsp.RMS(sig.Left), 0.0)
}

func TestPipeline_Deterministic(t *testing.T) {
	opts, listeners := pipelineFixtures(t, []string{"S0001_L0001_E001"})
	p := NewPipeline(opts, NewAmplifier(DefaultOpts()), listeners, nil)

	sums := make([]float64, 2)
	for i := range sums {
		_, err := p.Run(context.Background())
		require.NoError(t, err)

		sig, err := wavio.ReadStereo(p.OutputPath("S0001", "L0001"))
		require.NoError(t, err)
		for _, v := range sig.Left {
			sums[i] += math.Abs(v)
		}
	}
	assert.Equal(t, sums[0], sums[1])
}

func TestPipeline_MissingScene(t *testing.T) {
	opts, listeners := pipelineFixtures(t, []string{"S0001_L0001_E001"})
	require.NoError(t, os.Remove(filepath.Join(opts.SceneDir, "S0001_target_ref.wav")))

	p := NewPipeline(opts, NewAmplifier(DefaultOpts()), listeners, nil)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
