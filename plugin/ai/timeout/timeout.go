// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

const (
	// RouterTimeout bounds the routing completion of a turn.
	RouterTimeout = 10 * time.Second

	// AgentTimeout is the timeout for one handler invocation.
	AgentTimeout = 2 * time.Minute

	// ToolExecutionTimeout is the timeout for a single tool attempt.
	ToolExecutionTimeout = 30 * time.Second

	// MemoryUpdateTimeout bounds the post-turn memory update, which runs
	// detached from the caller's cancellation.
	MemoryUpdateTimeout = time.Minute

	// MaxIterations is the maximum number of tool loop iterations.
	MaxIterations = 10

	// MaxRecentToolCalls is how many recent tool calls are kept for loop detection.
	MaxRecentToolCalls = 5

	// MaxToolRetries is the number of retries for transient tool failures.
	MaxToolRetries = 2

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
