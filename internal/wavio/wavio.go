// Package wavio reads and writes the challenge audio files: 16-bit PCM
// stereo WAV, exposed as float64 samples normalized to [-1, 1].
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmScale converts between 16-bit PCM integers and normalized floats.
const pcmScale = 32768.0

// Static errors for audio file validation.
var (
	// ErrInvalidWAV is returned when a file is not a decodable WAV.
	ErrInvalidWAV = errors.New("wavio: invalid wav file")
	// ErrNotStereo is returned when a file does not carry exactly two channels.
	ErrNotStereo = errors.New("wavio: signal is not stereo")
	// ErrNotPCM16 is returned when a file is not 16-bit PCM.
	ErrNotPCM16 = errors.New("wavio: signal is not 16-bit PCM")
)

// Stereo is a two-channel signal with samples in [-1, 1].
type Stereo struct {
	// SampleRate is the sampling frequency in Hz.
	SampleRate int
	// Left and Right hold one normalized sample per frame.
	Left  []float64
	Right []float64
}

// Frames returns the number of samples per channel.
func (s *Stereo) Frames() int {
	return len(s.Left)
}

// ReadStereo decodes a 16-bit PCM stereo WAV file and normalizes samples
// to [-1, 1] by dividing by 32768. Channel count and bit depth are
// validated explicitly rather than assumed.
func ReadStereo(path string) (*Stereo, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if dec.NumChans != 2 {
		return nil, fmt.Errorf("%w: %s has %d channel(s)", ErrNotStereo, path, dec.NumChans)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s has bit depth %d", ErrNotPCM16, path, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}

	frames := len(buf.Data) / 2
	out := &Stereo{
		SampleRate: buf.Format.SampleRate,
		Left:       make([]float64, frames),
		Right:      make([]float64, frames),
	}
	for i := 0; i < frames; i++ {
		out.Left[i] = float64(buf.Data[2*i]) / pcmScale
		out.Right[i] = float64(buf.Data[2*i+1]) / pcmScale
	}
	return out, nil
}

// WriteStereo encodes a stereo signal as a 16-bit PCM WAV file. Samples
// outside [-1, 1] are clipped to full scale.
func WriteStereo(path string, s *Stereo) error {
	if len(s.Left) != len(s.Right) {
		return fmt.Errorf("%w: channel lengths %d and %d differ",
			ErrNotStereo, len(s.Left), len(s.Right))
	}

	f, err := os.Create(path) // #nosec G304 - path comes from trusted config
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	data := make([]int, 2*s.Frames())
	for i := 0; i < s.Frames(); i++ {
		data[2*i] = quantize(s.Left[i])
		data[2*i+1] = quantize(s.Right[i])
	}

	enc := wav.NewEncoder(f, s.SampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: s.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("encode wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	return f.Close()
}

// quantize maps a normalized sample to a 16-bit PCM integer with clipping.
func quantize(v float64) int {
	n := int(math.Round(v * pcmScale))
	if n > math.MaxInt16 {
		return math.MaxInt16
	}
	if n < math.MinInt16 {
		return math.MinInt16
	}
	return n
}
