// Package manager runs one conversation turn: load the user's memory, route
// the message, serve it with a handler or answer directly, then update memory.
package manager

import (
	"errors"
	"log/slog"
)

var (
	// ErrMissingThreadID is returned when a turn has no thread id.
	ErrMissingThreadID = errors.New("session config: thread_id is required")

	// ErrMissingUserID is returned when a user id is required but absent.
	ErrMissingUserID = errors.New("session config: user_id is required")
)

// SessionConfig identifies a turn.
type SessionConfig struct {
	// ThreadID keys the transcript checkpoint.
	ThreadID string `json:"thread_id"`
	// UserID keys long-term memory. Defaults to ThreadID.
	UserID string `json:"user_id,omitempty"`
}

// Resolve returns the memory identity of the session.
// Without a user id the thread id is used, unless requireUserID is set.
func (c SessionConfig) Resolve(requireUserID bool) (string, error) {
	if c.ThreadID == "" {
		return "", ErrMissingThreadID
	}
	if c.UserID != "" {
		return c.UserID, nil
	}
	if requireUserID {
		return "", ErrMissingUserID
	}
	slog.Debug("no user_id in session config, using thread_id", "thread_id", c.ThreadID)
	return c.ThreadID, nil
}
