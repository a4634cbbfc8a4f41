package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/store"
)

type fakeBackend struct {
	mu    sync.Mutex
	rows  []*store.MemoryEntry
	lists int
	// afterList runs once the rows are read, before they are returned.
	afterList func()
}

func (f *fakeBackend) ListMemoryEntries(_ context.Context, find *store.FindMemoryEntry) ([]*store.MemoryEntry, error) {
	f.mu.Lock()
	f.lists++
	var out []*store.MemoryEntry
	for _, r := range f.rows {
		if find.Namespace == nil || *find.Namespace == r.Namespace {
			c := *r
			out = append(out, &c)
		}
	}
	hook := f.afterList
	f.afterList = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeBackend) UpsertMemoryEntry(_ context.Context, upsert *store.MemoryEntry) (*store.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().Unix()
	for _, r := range f.rows {
		if r.Namespace == upsert.Namespace && r.Key == upsert.Key {
			r.Value = upsert.Value
			r.UpdatedTs = now
			return r, nil
		}
	}
	row := &store.MemoryEntry{
		ID:        int32(len(f.rows) + 1),
		Namespace: upsert.Namespace,
		Key:       upsert.Key,
		Value:     upsert.Value,
		CreatedTs: now,
		UpdatedTs: now,
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func TestPersistentStore_RoundTripAndCache(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	s := NewPersistentStore(backend, time.Minute)
	ns := NewNamespace(CategoryProfile, "u")

	require.NoError(t, s.Put(ctx, ns, ProfileKey, Profile{Name: "Quang"}))

	entries, err := s.Search(ctx, ns)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var p Profile
	require.NoError(t, entries[0].Decode(&p))
	assert.Equal(t, "Quang", p.Name)

	// Served from cache.
	_, err = s.Search(ctx, ns)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.lists)

	// Put invalidates the namespace.
	require.NoError(t, s.Put(ctx, ns, ProfileKey, Profile{Name: "Quang Nguyen"}))
	entries, err = s.Search(ctx, ns)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.lists)
	require.NoError(t, entries[0].Decode(&p))
	assert.Equal(t, "Quang Nguyen", p.Name)
}

func TestPersistentStore_ConcurrentPutDoesNotLeaveStaleCache(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	s := NewPersistentStore(backend, time.Minute)
	ns := NewNamespace(CategoryProfile, "u")
	require.NoError(t, s.Put(ctx, ns, ProfileKey, Profile{Name: "Old"}))

	// A write lands between the read query and the cache fill.
	backend.afterList = func() {
		require.NoError(t, s.Put(ctx, ns, ProfileKey, Profile{Name: "New"}))
	}
	stale, err := s.Search(ctx, ns)
	require.NoError(t, err)
	var p Profile
	require.NoError(t, stale[0].Decode(&p))
	assert.Equal(t, "Old", p.Name)

	entries, err := s.Search(ctx, ns)
	require.NoError(t, err)
	require.NoError(t, entries[0].Decode(&p))
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, 2, backend.lists)
}
