// Package listener provides listener audiogram metadata loaded from the
// challenge listeners.json store. Audiograms are read once at startup and
// shared read-only across all signals for a listener.
package listener

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Static errors for audiogram lookup and validation.
var (
	// ErrListenerNotFound is returned when no audiogram exists for a listener id.
	ErrListenerNotFound = errors.New("listener: audiogram not found")
	// ErrInvalidAudiogram is returned when an audiogram's level and frequency
	// slices are empty or have mismatched lengths.
	ErrInvalidAudiogram = errors.New("listener: invalid audiogram")
)

// Audiogram is a listener's hearing-threshold curve: hearing levels in dB HL
// per ear at a shared set of center frequencies.
type Audiogram struct {
	// LevelsLeft are the left-ear hearing levels in dB HL, one per CF.
	LevelsLeft []float64 `json:"audiogram_levels_l"`
	// LevelsRight are the right-ear hearing levels in dB HL, one per CF.
	LevelsRight []float64 `json:"audiogram_levels_r"`
	// CFs are the audiometric center frequencies in Hz.
	CFs []float64 `json:"audiogram_cfs"`
}

// Validate checks that both ears carry one level per center frequency.
func (a Audiogram) Validate() error {
	if len(a.CFs) == 0 {
		return fmt.Errorf("%w: no center frequencies", ErrInvalidAudiogram)
	}
	if len(a.LevelsLeft) != len(a.CFs) || len(a.LevelsRight) != len(a.CFs) {
		return fmt.Errorf("%w: %d cfs, %d left levels, %d right levels",
			ErrInvalidAudiogram, len(a.CFs), len(a.LevelsLeft), len(a.LevelsRight))
	}
	return nil
}

// Store holds the audiograms for all listeners, keyed by listener id.
type Store struct {
	audiograms map[string]Audiogram
}

// LoadStore reads a listeners.json file: a JSON object keyed by listener id,
// each value carrying audiogram_levels_l, audiogram_levels_r and
// audiogram_cfs. Every audiogram is validated on load.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("read listener metadata: %w", err)
	}

	audiograms := make(map[string]Audiogram)
	if err := json.Unmarshal(data, &audiograms); err != nil {
		return nil, fmt.Errorf("parse listener metadata %s: %w", path, err)
	}

	for id, a := range audiograms {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("listener %s: %w", id, err)
		}
	}

	return &Store{audiograms: audiograms}, nil
}

// Get returns the audiogram for a listener id.
// Returns ErrListenerNotFound if the listener is unknown.
func (s *Store) Get(id string) (Audiogram, error) {
	a, ok := s.audiograms[id]
	if !ok {
		return Audiogram{}, fmt.Errorf("%w: %s", ErrListenerNotFound, id)
	}
	return a, nil
}

// Len returns the number of listeners in the store.
func (s *Store) Len() int {
	return len(s.audiograms)
}
