package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/hrygo/orbita/plugin/ai/cache"
	"github.com/hrygo/orbita/store"
)

// EntryBackend is the SQL persistence used by PersistentStore.
// *store.Store implements it.
type EntryBackend interface {
	ListMemoryEntries(ctx context.Context, find *store.FindMemoryEntry) ([]*store.MemoryEntry, error)
	UpsertMemoryEntry(ctx context.Context, upsert *store.MemoryEntry) (*store.MemoryEntry, error)
}

// PersistentStore is a Store backed by the memory_entry table with a
// read-through namespace cache.
type PersistentStore struct {
	backend EntryBackend
	cache   *cache.Cache[[]Entry]

	// generations counts writes per namespace. A read only fills the cache
	// when no write landed while it was querying.
	mu          sync.Mutex
	generations map[string]uint64
}

var _ Store = (*PersistentStore)(nil)

// NewPersistentStore creates a store over backend. Namespace reads are
// cached for ttl (default 5 minutes) and invalidated on Put.
func NewPersistentStore(backend EntryBackend, ttl time.Duration) *PersistentStore {
	return &PersistentStore{
		backend:     backend,
		cache:       cache.New[[]Entry](1000, ttl),
		generations: make(map[string]uint64),
	}
}

func (s *PersistentStore) Search(ctx context.Context, ns Namespace) ([]Entry, error) {
	key := ns.String()
	if cached, ok := s.cache.Get(key); ok {
		return slices.Clone(cached), nil
	}

	gen := s.generation(key)
	rows, err := s.backend.ListMemoryEntries(ctx, &store.FindMemoryEntry{Namespace: &key})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Key:       row.Key,
			Value:     json.RawMessage(row.Value),
			CreatedAt: time.Unix(row.CreatedTs, 0),
			UpdatedAt: time.Unix(row.UpdatedTs, 0),
		})
	}
	s.fill(key, gen, entries)
	return slices.Clone(entries), nil
}

func (s *PersistentStore) Put(ctx context.Context, ns Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	namespace := ns.String()
	defer s.invalidate(namespace)

	_, err = s.backend.UpsertMemoryEntry(ctx, &store.MemoryEntry{
		Namespace: namespace,
		Key:       key,
		Value:     string(raw),
	})
	return err
}

func (s *PersistentStore) generation(namespace string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[namespace]
}

func (s *PersistentStore) fill(namespace string, gen uint64, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[namespace] == gen {
		s.cache.Set(namespace, entries, 0)
	}
}

func (s *PersistentStore) invalidate(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[namespace]++
	s.cache.Invalidate(namespace)
}
