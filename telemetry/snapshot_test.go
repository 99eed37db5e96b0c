package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/neural"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	nn := neural.NewNetwork(rand.New(rand.NewSource(42)), []int{6})

	snapshot := &NetworkSnapshot{
		Version:    SnapshotVersion,
		RunID:      NewRunID(),
		Seed:       42,
		Generation: 17,
		Fitness:    1234,
		Score:      9,
		SavedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Brain:      nn.MarshalWeights(),
	}

	path := filepath.Join(tmpDir, "nested", "best.json")
	if err := SaveNetworkSnapshot(snapshot, path); err != nil {
		t.Fatalf("SaveNetworkSnapshot: %v", err)
	}

	loaded, err := LoadNetworkSnapshot(path)
	if err != nil {
		t.Fatalf("LoadNetworkSnapshot: %v", err)
	}

	if loaded.RunID != snapshot.RunID || loaded.Generation != 17 || loaded.Score != 9 {
		t.Errorf("loaded header = %+v", loaded)
	}
	if !loaded.SavedAt.Equal(snapshot.SavedAt) {
		t.Errorf("SavedAt = %v, want %v", loaded.SavedAt, snapshot.SavedAt)
	}

	restored, err := loaded.Network()
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if !restored.Equal(nn) {
		t.Error("restored network differs from the saved one")
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadNetworkSnapshot(path)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected version error, got %v", err)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadNetworkSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("run IDs should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("run ID %q is not a UUID: %v", a, err)
	}
}
