package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records the inputs of the last persisted snapshot.
type Checkpoint struct {
	Version    string `json:"version"`
	RefPrice   string `json:"ref_price"`
	HopPricing bool   `json:"hop_pricing"`
	SnapshotID string `json:"snapshot_id"`
	UpdatedAt  string `json:"updated_at"`
}

// Same reports whether two checkpoints describe the same pricing inputs.
func (c Checkpoint) Same(other Checkpoint) bool {
	return c.Version == other.Version && c.RefPrice == other.RefPrice && c.HopPricing == other.HopPricing
}

// CheckpointStore persists the last checkpoint.
type CheckpointStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileCheckpointStore persists checkpoints to disk.
type FileCheckpointStore struct {
	path    string
	enabled bool
}

func NewFileCheckpointStore(path string, enabled bool) *FileCheckpointStore {
	return &FileCheckpointStore{path: path, enabled: enabled}
}

func (c *FileCheckpointStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if !c.enabled || c.path == "" {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	return cp, true, nil
}

func (c *FileCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	if !c.enabled || c.path == "" {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}

// StateBackend is a named key/value store, such as the runner_state table.
type StateBackend interface {
	LoadState(ctx context.Context, name string) (string, bool, error)
	SaveState(ctx context.Context, name string, value string) error
}

// DBCheckpointStore keeps the checkpoint as JSON under Name.
type DBCheckpointStore struct {
	Backend StateBackend
	Name    string
}

func (s *DBCheckpointStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Backend == nil {
		return Checkpoint{}, false, nil
	}
	value, ok, err := s.Backend.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}
	var cp Checkpoint
	if err := json.Unmarshal([]byte(value), &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp, true, nil
}

func (s *DBCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return s.Backend.SaveState(ctx, s.Name, string(data))
}
