package results

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Compile-time check that FileStore implements Store.
var _ Store = (*FileStore)(nil)

// FileStore is a newline-delimited JSON checkpoint log. Each line is one
// Record; the file is opened in append mode and every Append is flushed
// to the OS before returning, so partial progress survives interruption.
// A single process instance owns the file at a time; no concurrent-writer
// protection is provided.
type FileStore struct {
	path string
	file *os.File
	seen map[string]struct{}
}

// OpenFile opens (creating if absent) a JSONL results log and indexes the
// signals already present so restarts skip completed work.
func OpenFile(path string) (*FileStore, error) {
	seen := make(map[string]struct{})

	if data, err := os.ReadFile(path); err == nil { // #nosec G304 - path comes from trusted config
		if err := indexLines(data, seen); err != nil {
			return nil, fmt.Errorf("index results log %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read results log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304
	if err != nil {
		return nil, fmt.Errorf("open results log: %w", err)
	}

	return &FileStore{path: path, file: f, seen: seen}, nil
}

// indexLines parses existing JSONL content into the signal index.
func indexLines(data []byte, seen map[string]struct{}) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("malformed line %q: %w", string(line), err)
		}
		seen[rec.Signal] = struct{}{}
	}
	return scanner.Err()
}

// Path returns the location of the underlying log file.
func (s *FileStore) Path() string {
	return s.path
}

// Contains reports whether the signal already has a score in the log.
func (s *FileStore) Contains(signal string) bool {
	_, ok := s.seen[signal]
	return ok
}

// Append writes one record as a JSON line and syncs it to disk.
func (s *FileStore) Append(rec Record) error {
	if s.Contains(rec.Signal) {
		return fmt.Errorf("%w: %s", ErrDuplicateSignal, rec.Signal)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync results log: %w", err)
	}

	s.seen[rec.Signal] = struct{}{}
	return nil
}

// Len returns the number of scored signals in the log.
func (s *FileStore) Len() int {
	return len(s.seen)
}

// Close closes the underlying log file.
func (s *FileStore) Close() error {
	return s.file.Close()
}
