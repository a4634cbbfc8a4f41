package manager

import (
	"context"
	"log/slog"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/session"
)

// Conversation runs turns of persisted threads.
type Conversation struct {
	manager     *Manager
	checkpoints session.CheckpointService
}

// NewConversation wraps manager with a checkpoint service.
func NewConversation(manager *Manager, checkpoints session.CheckpointService) *Conversation {
	if checkpoints == nil {
		checkpoints = session.NewMemoryCheckpointService()
	}
	return &Conversation{manager: manager, checkpoints: checkpoints}
}

// Send loads the thread transcript, runs a turn and saves the result.
// A failed save is logged; the reply is still returned.
func (c *Conversation) Send(ctx context.Context, cfg SessionConfig, input string) (*TurnResult, error) {
	if cfg.ThreadID == "" {
		return nil, ErrMissingThreadID
	}

	transcript, err := c.checkpoints.Load(ctx, cfg.ThreadID)
	if err != nil {
		slog.Warn("checkpoint load failed, starting a fresh transcript",
			"thread_id", cfg.ThreadID,
			"error", err)
		transcript = nil
	}

	result, err := c.manager.Invoke(ctx, cfg, transcript, input)
	if err != nil {
		return nil, err
	}

	userID, _ := cfg.Resolve(false)
	if err := c.checkpoints.Save(ctx, cfg.ThreadID, userID, result.Transcript); err != nil {
		slog.Error("checkpoint save failed",
			"thread_id", cfg.ThreadID,
			"error", err)
	}
	return result, nil
}

// History returns the stored transcript of a thread.
func (c *Conversation) History(ctx context.Context, threadID string) ([]ai.Message, error) {
	if threadID == "" {
		return nil, ErrMissingThreadID
	}
	return c.checkpoints.Load(ctx, threadID)
}

// Owner returns the user a thread belongs to, or "" for an unknown thread.
func (c *Conversation) Owner(ctx context.Context, threadID string) (string, error) {
	if threadID == "" {
		return "", ErrMissingThreadID
	}
	return c.checkpoints.Owner(ctx, threadID)
}

// Threads lists the recent threads of a user.
func (c *Conversation) Threads(ctx context.Context, userID string, limit int) ([]session.ThreadSummary, error) {
	return c.checkpoints.List(ctx, userID, limit)
}
