// Package artifact persists pipeline outputs: per-stage JSON artifacts
// in a run directory, and an SQLite ledger of runs and stage attempts.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/even/showrunner/internal/pipeline"
)

// Store writes JSON artifacts under a single directory, one file per
// key. Writes are atomic: content lands in a temp file that is renamed
// over the destination, so a crash never leaves a truncated artifact.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates the directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Write marshals value and atomically replaces <dir>/<key>.json.
// Re-writing a key is expected: the context snapshot is overwritten
// after every stage.
func (s *Store) Write(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", key, err)
	}

	dest := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact %s: %w", key, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit artifact %s: %w", key, err)
	}
	return nil
}

// Load reads the artifact for key into the given destination.
func (s *Store) Load(key string, into any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", key, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode artifact %s: %w", key, err)
	}
	return nil
}

// Has reports whether an artifact exists for key.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// SnapshotKey is the artifact key of the full-context snapshot.
const SnapshotKey = "context"

// ErrNoSnapshot is returned by LoadSnapshot when no context artifact
// exists yet.
var ErrNoSnapshot = errors.New("no context snapshot in store")

// LoadSnapshot restores the persisted context snapshot, for resuming a
// partial run.
func (s *Store) LoadSnapshot() (pipeline.Snapshot, error) {
	var snap pipeline.Snapshot
	if !s.Has(SnapshotKey) {
		return snap, ErrNoSnapshot
	}
	if err := s.Load(SnapshotKey, &snap); err != nil {
		return pipeline.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
