package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store is a namespaced key-value store for memory entries.
type Store interface {
	// Search returns the entries of a namespace in first-insertion order.
	// A namespace without entries yields an empty slice and no error.
	Search(ctx context.Context, ns Namespace) ([]Entry, error)

	// Put creates or overwrites the entry at key. The value is stored as JSON.
	Put(ctx context.Context, ns Namespace, key string, value any) error
}

// InMemoryStore is a process-local Store.
type InMemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceEntries
	now        func() time.Time
}

type namespaceEntries struct {
	order   []string
	entries map[string]Entry
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		namespaces: make(map[string]*namespaceEntries),
		now:        time.Now,
	}
}

func (s *InMemoryStore) Search(_ context.Context, ns Namespace) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.namespaces[ns.String()]
	if !ok {
		return []Entry{}, nil
	}
	out := make([]Entry, 0, len(bucket.order))
	for _, key := range bucket.order {
		e := bucket.entries[key]
		e.Value = bytes.Clone(e.Value)
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) Put(_ context.Context, ns Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.namespaces[ns.String()]
	if !ok {
		bucket = &namespaceEntries{entries: make(map[string]Entry)}
		s.namespaces[ns.String()] = bucket
	}

	now := s.now()
	e, exists := bucket.entries[key]
	if !exists {
		bucket.order = append(bucket.order, key)
		e = Entry{Key: key, CreatedAt: now}
	}
	e.Value = raw
	e.UpdatedAt = now
	bucket.entries[key] = e
	return nil
}
