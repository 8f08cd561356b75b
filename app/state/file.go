package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps the sync state in a single JSON document. Writes go
// through a temp file and rename so a crash mid-save never leaves a
// truncated document behind.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state document. An absent or unparsable document loads
// as the empty state so a fresh or damaged install starts over instead
// of failing the run.
func (s *FileStore) Load() (*SyncState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("State file unreadable, starting with empty state", "path", s.path, "error", err)
		}

		return NewSyncState(), nil
	}

	var loaded SyncState
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Warn("State file corrupt, starting with empty state", "path", s.path, "error", err)

		return NewSyncState(), nil
	}

	if loaded.Records == nil {
		loaded.Records = make(map[string]TrackedItemRecord)
	}

	return &loaded, nil
}

func (s *FileStore) Save(state *SyncState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
