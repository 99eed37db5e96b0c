// Package storage persists the player leaderboard and trained networks.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/neural"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// PlayerRecord is one finished human game.
type PlayerRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	PipeGap    int       `json:"pipe_gap"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NetworkRecord is a trained network saved at the end of a generation.
type NetworkRecord struct {
	ID         string              `json:"id"`
	RunID      string              `json:"run_id"`
	Generation int                 `json:"generation"`
	Fitness    float64             `json:"fitness"`
	Score      int                 `json:"score"`
	SavedAt    time.Time           `json:"saved_at"`
	Weights    neural.BrainWeights `json:"brain"`
}

// Store defines persistence for leaderboard entries and networks.
type Store interface {
	Init(ctx context.Context) error
	SavePlayer(ctx context.Context, rec PlayerRecord) error
	TopPlayers(ctx context.Context, limit int) ([]PlayerRecord, error)
	SaveNetwork(ctx context.Context, rec NetworkRecord) error
	GetNetwork(ctx context.Context, id string) (NetworkRecord, bool, error)
	// BestNetwork returns the highest-fitness network of a run, or of all
	// runs when runID is empty.
	BestNetwork(ctx context.Context, runID string) (NetworkRecord, bool, error)
}

// stamp fills a missing ID and timestamp.
func stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = time.Now().UTC()
	}
}
