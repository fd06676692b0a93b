// Package manifest provides loading and sharding of the dataset manifest:
// the JSON list of signal records requiring scores.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Static errors for manifest loading and sharding.
var (
	// ErrInvalidRecord is returned when a manifest record fails validation.
	ErrInvalidRecord = errors.New("manifest: invalid record")
	// ErrInvalidShard is returned when a shard selection is out of range.
	ErrInvalidShard = errors.New("manifest: invalid shard selection")
)

// Record is one manifest entry. Manifests may carry additional per-signal
// metadata; only the signal name is required here, unknown fields are
// ignored on decode.
type Record struct {
	// Signal is the signal identifier, e.g. "S0001_L0001_E001".
	Signal string `json:"signal" validate:"required"`
}

// validate is shared across loads; validator instances cache struct metadata.
var validate = validator.New()

// Load reads a manifest file: a JSON array of objects each carrying at
// least a "signal" field. Every record is validated; a record without a
// signal name fails the whole load.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidRecord, i, err)
		}
	}

	return records, nil
}

// Shard selects the subset of records assigned to batch (1-based) out of
// nBatches, taking every nBatches-th record starting at index batch-1.
// Across batch=1..nBatches every record is selected exactly once.
func Shard(records []Record, batch, nBatches int) ([]Record, error) {
	if nBatches < 1 || batch < 1 || batch > nBatches {
		return nil, fmt.Errorf("%w: batch %d of %d", ErrInvalidShard, batch, nBatches)
	}
	if nBatches == 1 {
		return records, nil
	}

	var out []Record
	for i := batch - 1; i < len(records); i += nBatches {
		out = append(out, records[i])
	}
	return out, nil
}

// Exclude returns the records whose signal name is not reported done by
// the given predicate, preserving manifest order.
func Exclude(records []Record, done func(string) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if done(rec.Signal) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
