package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// NetworkSnapshot holds one trained network with enough context to reload
// and identify it.
type NetworkSnapshot struct {
	Version    int                 `json:"version"`
	RunID      string              `json:"run_id"`
	Seed       int64               `json:"seed"`
	Generation int                 `json:"generation"`
	Fitness    float64             `json:"fitness"`
	Score      int                 `json:"score"`
	SavedAt    time.Time           `json:"saved_at"`
	Brain      neural.BrainWeights `json:"brain"`
}

// NewRunID returns a fresh identifier for a training run.
func NewRunID() string {
	return uuid.NewString()
}

// Network rebuilds the stored network.
func (s *NetworkSnapshot) Network() (*neural.Network, error) {
	return neural.FromWeights(s.Brain)
}

// SaveNetworkSnapshot writes a snapshot to path, creating parent directories.
func SaveNetworkSnapshot(snapshot *NetworkSnapshot, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadNetworkSnapshot reads a snapshot from disk and checks its version.
func LoadNetworkSnapshot(path string) (*NetworkSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot NetworkSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
