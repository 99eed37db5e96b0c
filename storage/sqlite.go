package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pthm-cable/flappy/neural"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SavePlayer(ctx context.Context, rec PlayerRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	stamp(&rec.ID, &rec.RecordedAt)
	_, err = db.ExecContext(ctx, `
		INSERT INTO players (id, name, score, pipe_gap, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Score, rec.PipeGap, rec.RecordedAt.UnixNano())
	return err
}

func (s *SQLiteStore) TopPlayers(ctx context.Context, limit int) ([]PlayerRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, score, pipe_gap, recorded_at
		FROM players
		ORDER BY score DESC, seq ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		var recordedAt int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Score, &rec.PipeGap, &recordedAt); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.Unix(0, recordedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveNetwork(ctx context.Context, rec NetworkRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	stamp(&rec.ID, &rec.SavedAt)
	payload, err := json.Marshal(rec.Weights)
	if err != nil {
		return fmt.Errorf("encode network %s: %w", rec.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO networks (id, run_id, generation, fitness, score, saved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			generation = excluded.generation,
			fitness = excluded.fitness,
			score = excluded.score,
			saved_at = excluded.saved_at,
			payload = excluded.payload
	`, rec.ID, rec.RunID, rec.Generation, rec.Fitness, rec.Score, rec.SavedAt.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) GetNetwork(ctx context.Context, id string) (NetworkRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return NetworkRecord{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, fitness, score, saved_at, payload
		FROM networks WHERE id = ?
	`, id)
	return scanNetwork(row)
}

func (s *SQLiteStore) BestNetwork(ctx context.Context, runID string) (NetworkRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return NetworkRecord{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, fitness, score, saved_at, payload
		FROM networks
		WHERE ? = '' OR run_id = ?
		ORDER BY fitness DESC, seq ASC
		LIMIT 1
	`, runID, runID)
	return scanNetwork(row)
}

func scanNetwork(row *sql.Row) (NetworkRecord, bool, error) {
	var rec NetworkRecord
	var savedAt int64
	var payload []byte
	err := row.Scan(&rec.ID, &rec.RunID, &rec.Generation, &rec.Fitness, &rec.Score, &savedAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NetworkRecord{}, false, nil
		}
		return NetworkRecord{}, false, err
	}

	var weights neural.BrainWeights
	if err := json.Unmarshal(payload, &weights); err != nil {
		return NetworkRecord{}, false, fmt.Errorf("decode network %s: %w", rec.ID, err)
	}
	rec.Weights = weights
	rec.SavedAt = time.Unix(0, savedAt).UTC()
	return rec, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			pipe_gap INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS networks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			score INTEGER NOT NULL,
			saved_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS networks_run ON networks (run_id, fitness);
	`)
	return err
}
