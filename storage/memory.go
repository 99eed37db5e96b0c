package storage

import (
	"context"
	"sort"
	"sync"
)

// MaxNetworksPerRun caps how many networks a MemoryStore keeps for one run.
// Past the cap the lowest-fitness network of that run is evicted.
const MaxNetworksPerRun = 32

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	maxPerRun   int
	players     []PlayerRecord
	networks    []NetworkRecord
	networkByID map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maxPerRun: MaxNetworksPerRun}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.players = nil
	s.networks = nil
	s.networkByID = make(map[string]int)
	return nil
}

func (s *MemoryStore) SavePlayer(_ context.Context, rec PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	stamp(&rec.ID, &rec.RecordedAt)
	s.players = append(s.players, rec)
	return nil
}

// TopPlayers returns up to limit records by score descending; earlier
// records win ties. A non-positive limit returns every record.
func (s *MemoryStore) TopPlayers(_ context.Context, limit int) ([]PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]PlayerRecord, len(s.players))
	copy(out, s.players)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, rec NetworkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	stamp(&rec.ID, &rec.SavedAt)
	if idx, ok := s.networkByID[rec.ID]; ok {
		s.networks[idx] = rec
		return nil
	}
	s.networkByID[rec.ID] = len(s.networks)
	s.networks = append(s.networks, rec)
	s.evict(rec.RunID)
	return nil
}

// evict drops the weakest network of runID while the run is over the cap.
// Among equal fitness the newest goes first.
func (s *MemoryStore) evict(runID string) {
	count, worst := 0, -1
	for i, rec := range s.networks {
		if rec.RunID != runID {
			continue
		}
		count++
		if worst < 0 || rec.Fitness <= s.networks[worst].Fitness {
			worst = i
		}
	}
	if count <= s.maxPerRun {
		return
	}

	delete(s.networkByID, s.networks[worst].ID)
	s.networks = append(s.networks[:worst], s.networks[worst+1:]...)
	for i := worst; i < len(s.networks); i++ {
		s.networkByID[s.networks[i].ID] = i
	}
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (NetworkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return NetworkRecord{}, false, ErrNotInitialized
	}
	idx, ok := s.networkByID[id]
	if !ok {
		return NetworkRecord{}, false, nil
	}
	return s.networks[idx], true, nil
}

func (s *MemoryStore) BestNetwork(_ context.Context, runID string) (NetworkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return NetworkRecord{}, false, ErrNotInitialized
	}
	best := -1
	for i, rec := range s.networks {
		if runID != "" && rec.RunID != runID {
			continue
		}
		if best < 0 || rec.Fitness > s.networks[best].Fitness {
			best = i
		}
	}
	if best < 0 {
		return NetworkRecord{}, false, nil
	}
	return s.networks[best], true, nil
}
