package results

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps results in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	results []Result
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, r *Result) error {
	if err := prepare(r, m.now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, *r)
	return nil
}

// Leaderboard implements Store.
func (m *MemoryStore) Leaderboard(_ context.Context, configName string, limit int) ([]Result, error) {
	m.mu.RLock()
	out := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		if configName == "" || r.ConfigName == configName {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
