// Package results provides the checkpoint store for HASPI batch runs: an
// append-only log of per-signal scores whose presence decides which
// signals are skipped on restart.
//
// The Store interface acts as a port; FileStore is the durable JSONL
// adapter and MemoryStore backs tests.
package results

import (
	"errors"
	"fmt"
)

// ErrDuplicateSignal is returned when a record is appended for a signal
// that already has a score in the store.
var ErrDuplicateSignal = errors.New("results: signal already scored")

// Record is one scored signal. Records are appended, never mutated.
type Record struct {
	// Signal is the signal identifier the score belongs to.
	Signal string `json:"signal"`
	// HASPI is the intelligibility score in [0, 1].
	HASPI float64 `json:"haspi"`
}

// Store is the checkpoint capability required by the batch driver:
// membership tests against already-scored signals and durable appends.
// Implementations must guarantee at most one record per signal name.
type Store interface {
	// Contains reports whether a score was already appended for the signal.
	Contains(signal string) bool

	// Append durably adds one record. Implementations persist before
	// returning so a crash after Append never loses the record.
	// Returns ErrDuplicateSignal when the signal is already present.
	Append(rec Record) error

	// Len returns the number of records in the store.
	Len() int

	// Close releases any underlying resources.
	Close() error
}

// FileName returns the results log name for a dataset and shard selection:
// "{dataset}.haspi.jsonl", or "{dataset}.haspi.{batch}_{nBatches}.jsonl"
// when the work is split across more than one batch.
func FileName(dataset string, batch, nBatches int) string {
	if nBatches > 1 {
		return fmt.Sprintf("%s.haspi.%d_%d.jsonl", dataset, batch, nBatches)
	}
	return fmt.Sprintf("%s.haspi.jsonl", dataset)
}
