package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raglite/raglite/pkg/types"
)

// loadState reads the persisted index state. A missing file yields a fresh
// empty state; a corrupt file is an error so the caller can decide to rebuild
// rather than silently double-index.
func loadState(path string) (*types.IndexState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.NewIndexState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index state: %w", err)
	}

	var state types.IndexState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse index state %s: %w", path, err)
	}
	if state.Files == nil {
		state.Files = make(map[string]string)
	}
	return &state, nil
}

// saveState persists state atomically via temp file and rename, so a crash
// mid-write never leaves a truncated state file behind.
func saveState(path string, state *types.IndexState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace index state: %w", err)
	}
	return nil
}
