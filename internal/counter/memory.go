package counter

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process counter for local runs and tests
type MemoryStore struct {
	mu        sync.Mutex
	processed map[string]int
	total     map[string]int
}

// NewMemoryStore creates an empty in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		processed: make(map[string]int),
		total:     make(map[string]int),
	}
}

func (m *MemoryStore) Init(ctx context.Context, puuid string, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed[puuid] = 0
	m.total[puuid] = total
	return nil
}

func (m *MemoryStore) AddProcessed(ctx context.Context, puuid string, delta int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total, ok := m.total[puuid]
	if !ok {
		return 0, 0, fmt.Errorf("counter for %s was never initialized", puuid)
	}

	m.processed[puuid] += delta
	return m.processed[puuid], total, nil
}

func (m *MemoryStore) Get(ctx context.Context, puuid string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.processed[puuid], m.total[puuid], nil
}
