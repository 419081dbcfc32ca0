package points

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and persistence-free hosts.
type MemoryStore struct {
	mu     sync.Mutex
	totals map[string]float64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{totals: make(map[string]float64)}
}

func (s *MemoryStore) Add(_ context.Context, subject uuid.UUID, category string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subject.String() + "/" + category
	s.totals[key] += amount
	return s.totals[key], nil
}

func (s *MemoryStore) Total(_ context.Context, subject uuid.UUID, category string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[subject.String()+"/"+category], nil
}

func (s *MemoryStore) Close() error { return nil }
