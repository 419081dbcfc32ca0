package keystore

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const shardCount = 16

// MemoryStore is an in-memory Store sharded by subject to reduce lock
// contention under concurrent evaluation. Suitable for tests and for hosts
// that do not need persistence across restarts.
type MemoryStore struct {
	shards [shardCount]memoryShard
}

type memoryShard struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].data = make(map[string]string)
	}
	return s
}

func (s *MemoryStore) shard(subject uuid.UUID) *memoryShard {
	h := fnv.New32a()
	h.Write(subject[:])
	return &s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Get(_ context.Context, subject uuid.UUID, key string) (string, bool, error) {
	shard := s.shard(subject)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	value, ok := shard.data[subject.String()+"/"+key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, subject uuid.UUID, key, value string) error {
	shard := s.shard(subject)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.data[subject.String()+"/"+key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, subject uuid.UUID, key string) error {
	shard := s.shard(subject)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.data, subject.String()+"/"+key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
