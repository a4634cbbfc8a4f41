package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/cache"
	"github.com/hrygo/orbita/store"
)

const cacheTTL = 30 * time.Minute

// CheckpointBackend is the SQL persistence used by StoreCheckpointService.
// *store.Store implements it.
type CheckpointBackend interface {
	GetCheckpoint(ctx context.Context, threadID string) (*store.Checkpoint, error)
	UpsertCheckpoint(ctx context.Context, upsert *store.Checkpoint) (*store.Checkpoint, error)
	ListCheckpoints(ctx context.Context, find *store.FindCheckpoint) ([]*store.Checkpoint, error)
}

// StoreCheckpointService persists transcripts in the checkpoint table with
// an LRU cache in front.
type StoreCheckpointService struct {
	backend CheckpointBackend
	cache   *cache.Cache[storedThread]
}

type storedThread struct {
	userID     string
	transcript []ai.Message
}

var _ CheckpointService = (*StoreCheckpointService)(nil)

func NewStoreCheckpointService(backend CheckpointBackend) *StoreCheckpointService {
	return &StoreCheckpointService{
		backend: backend,
		cache:   cache.New[storedThread](500, cacheTTL),
	}
}

func (s *StoreCheckpointService) Load(ctx context.Context, threadID string) ([]ai.Message, error) {
	t, ok, err := s.thread(ctx, threadID)
	if err != nil || !ok {
		return nil, err
	}
	return ai.CloneTranscript(t.transcript), nil
}

func (s *StoreCheckpointService) Owner(ctx context.Context, threadID string) (string, error) {
	t, _, err := s.thread(ctx, threadID)
	return t.userID, err
}

func (s *StoreCheckpointService) thread(ctx context.Context, threadID string) (storedThread, bool, error) {
	if cached, ok := s.cache.Get(threadID); ok {
		return cached, true, nil
	}

	cp, err := s.backend.GetCheckpoint(ctx, threadID)
	if err != nil {
		return storedThread{}, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return storedThread{}, false, nil // New thread
	}

	t := storedThread{userID: cp.UserID}
	if err := json.Unmarshal([]byte(cp.Transcript), &t.transcript); err != nil {
		// A corrupt checkpoint restarts the thread instead of failing every turn.
		slog.Warn("failed to unmarshal checkpoint", "thread_id", threadID, "error", err)
		t.transcript = nil
	}

	s.cache.Set(threadID, t, 0)
	return t, true, nil
}

func (s *StoreCheckpointService) Save(ctx context.Context, threadID, userID string, transcript []ai.Message) error {
	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if _, err := s.backend.UpsertCheckpoint(ctx, &store.Checkpoint{
		ThreadID:   threadID,
		UserID:     userID,
		Transcript: string(data),
	}); err != nil {
		s.cache.Invalidate(threadID)
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	s.cache.Set(threadID, storedThread{userID: userID, transcript: ai.CloneTranscript(transcript)}, 0)
	return nil
}

func (s *StoreCheckpointService) List(ctx context.Context, userID string, limit int) ([]ThreadSummary, error) {
	find := &store.FindCheckpoint{UserID: &userID}
	if limit > 0 {
		find.Limit = &limit
	}
	list, err := s.backend.ListCheckpoints(ctx, find)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	out := make([]ThreadSummary, 0, len(list))
	for _, cp := range list {
		var transcript []ai.Message
		if err := json.Unmarshal([]byte(cp.Transcript), &transcript); err != nil {
			slog.Warn("failed to unmarshal checkpoint", "thread_id", cp.ThreadID, "error", err)
		}
		out = append(out, summarize(cp.ThreadID, cp.UserID, transcript, cp.UpdatedTs))
	}
	return out, nil
}
