package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hrygo/orbita/plugin/ai"
)

// MemoryCheckpointService keeps transcripts in process memory.
// Transcripts are copied on read and write.
type MemoryCheckpointService struct {
	mu      sync.RWMutex
	threads map[string]memoryThread
}

type memoryThread struct {
	userID     string
	transcript []ai.Message
	updatedAt  int64
}

var _ CheckpointService = (*MemoryCheckpointService)(nil)

func NewMemoryCheckpointService() *MemoryCheckpointService {
	return &MemoryCheckpointService{threads: make(map[string]memoryThread)}
}

func (m *MemoryCheckpointService) Load(_ context.Context, threadID string) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[threadID]
	if !ok {
		return nil, nil
	}
	return ai.CloneTranscript(t.transcript), nil
}

func (m *MemoryCheckpointService) Save(_ context.Context, threadID, userID string, transcript []ai.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[threadID] = memoryThread{
		userID:     userID,
		transcript: ai.CloneTranscript(transcript),
		updatedAt:  time.Now().UnixNano(),
	}
	return nil
}

func (m *MemoryCheckpointService) Owner(_ context.Context, threadID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.threads[threadID].userID, nil
}

func (m *MemoryCheckpointService) List(_ context.Context, userID string, limit int) ([]ThreadSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ThreadSummary
	for id, t := range m.threads {
		if t.userID == userID {
			out = append(out, summarize(id, t.userID, t.transcript, t.updatedAt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
