// Package session persists conversation transcripts between turns,
// keyed by thread id.
package session

import (
	"context"

	"github.com/hrygo/orbita/plugin/ai"
)

// CheckpointService loads and saves thread transcripts.
type CheckpointService interface {
	// Load returns the transcript of a thread, or nil for a new thread.
	Load(ctx context.Context, threadID string) ([]ai.Message, error)

	// Save replaces the transcript of a thread.
	Save(ctx context.Context, threadID, userID string, transcript []ai.Message) error

	// Owner returns the user id a thread was last saved under, or "" when
	// the thread does not exist.
	Owner(ctx context.Context, threadID string) (string, error)

	// List returns the most recently updated threads of a user.
	List(ctx context.Context, userID string, limit int) ([]ThreadSummary, error)
}

// ThreadSummary describes a stored thread.
type ThreadSummary struct {
	ThreadID    string `json:"thread_id"`
	UserID      string `json:"user_id"`
	LastMessage string `json:"last_message"`
	Messages    int    `json:"messages"`
	UpdatedAt   int64  `json:"updated_at"`
}

func summarize(threadID, userID string, transcript []ai.Message, updatedAt int64) ThreadSummary {
	s := ThreadSummary{ThreadID: threadID, UserID: userID, Messages: len(transcript), UpdatedAt: updatedAt}
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Content != "" && transcript[i].Role != ai.RoleTool {
			s.LastMessage = truncate(transcript[i].Content, 80)
			break
		}
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
