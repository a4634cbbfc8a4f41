package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/hrygo/orbita/plugin/ai"
)

// ErrStoreUnavailable is returned by FailingStore.
var ErrStoreUnavailable = errors.New("memory store unavailable")

// PutCall records one Put on a SpyStore.
type PutCall struct {
	Namespace Namespace
	Key       string
}

// SpyStore wraps a Store and records writes.
type SpyStore struct {
	Store

	mu    sync.Mutex
	puts  []PutCall
	reads int
}

// NewSpyStore wraps an in-memory store.
func NewSpyStore() *SpyStore {
	return &SpyStore{Store: NewInMemoryStore()}
}

func (s *SpyStore) Search(ctx context.Context, ns Namespace) ([]Entry, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.Store.Search(ctx, ns)
}

func (s *SpyStore) Put(ctx context.Context, ns Namespace, key string, value any) error {
	s.mu.Lock()
	s.puts = append(s.puts, PutCall{Namespace: ns, Key: key})
	s.mu.Unlock()
	return s.Store.Put(ctx, ns, key, value)
}

// Puts returns the recorded writes.
func (s *SpyStore) Puts() []PutCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PutCall(nil), s.puts...)
}

// Reads returns how many times Search was called.
func (s *SpyStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Reset clears the recorded calls.
func (s *SpyStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = nil
	s.reads = 0
}

// FailingStore fails every call with ErrStoreUnavailable.
type FailingStore struct{}

func (FailingStore) Search(context.Context, Namespace) ([]Entry, error) {
	return nil, ErrStoreUnavailable
}

func (FailingStore) Put(context.Context, Namespace, string, any) error {
	return ErrStoreUnavailable
}

// StaticExtractor returns fixed extractions per category.
type StaticExtractor struct {
	Results map[Category]*Extraction
	Err     error

	mu    sync.Mutex
	calls map[Category]int
	tails map[Category][]ai.Message
}

var _ Extractor = (*StaticExtractor)(nil)

func (x *StaticExtractor) Extract(_ context.Context, category Category, tail []ai.Message, _ []Entry) (*Extraction, error) {
	x.mu.Lock()
	if x.calls == nil {
		x.calls = make(map[Category]int)
		x.tails = make(map[Category][]ai.Message)
	}
	x.calls[category]++
	x.tails[category] = ai.CloneTranscript(tail)
	x.mu.Unlock()

	if x.Err != nil {
		return nil, x.Err
	}
	if r, ok := x.Results[category]; ok && r != nil {
		return r, nil
	}
	return &Extraction{}, nil
}

// Calls returns how many times category was extracted.
func (x *StaticExtractor) Calls(category Category) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls[category]
}

// Tail returns the last transcript tail passed for category.
func (x *StaticExtractor) Tail(category Category) []ai.Message {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tails[category]
}
