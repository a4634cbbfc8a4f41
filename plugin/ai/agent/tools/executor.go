// Package tools provides the tools handlers expose to the model and a
// resilient executor for running them.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/orbita/plugin/ai/timeout"
)

// ErrInvalidArguments marks tool input the model got wrong. It is never retried.
var ErrInvalidArguments = errors.New("invalid arguments")

// Tool defines the interface for executable tools.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string
	// Description tells the model when to use the tool.
	Description() string
	// Parameters returns the JSON schema of the tool arguments.
	Parameters() string
	// Run executes the tool with JSON arguments and returns its result text.
	Run(ctx context.Context, input string) (string, error)
}

// SideEffecting is implemented by tools whose Run changes external state.
// Their failures are never retried, since a failed attempt may already have
// taken effect.
type SideEffecting interface {
	SideEffects() bool
}

func hasSideEffects(tool Tool) bool {
	se, ok := tool.(SideEffecting)
	return ok && se.SideEffects()
}

// MetricsRecorder receives one record per tool execution.
type MetricsRecorder interface {
	RecordToolCall(ctx context.Context, toolName string, latency time.Duration, success bool)
}

// ResilientToolExecutor retries transient failures of read-only tools.
type ResilientToolExecutor struct {
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	metrics    MetricsRecorder
}

// ExecutorOption configures a ResilientToolExecutor.
type ExecutorOption func(*ResilientToolExecutor)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.maxRetries = n
	}
}

// WithRetryDelay sets the delay between retry attempts.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.retryDelay = d
	}
}

// WithTimeout sets the timeout for each execution attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.timeout = d
	}
}

// NewResilientToolExecutor creates an executor. metrics may be nil.
func NewResilientToolExecutor(metrics MetricsRecorder, opts ...ExecutorOption) *ResilientToolExecutor {
	e := &ResilientToolExecutor{
		maxRetries: timeout.MaxToolRetries,
		retryDelay: 500 * time.Millisecond,
		timeout:    timeout.ToolExecutionTimeout,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the tool, retrying on transient errors.
func (e *ResilientToolExecutor) Execute(ctx context.Context, tool Tool, input string) (string, error) {
	result, _, err := e.execute(ctx, tool, input)
	return result, err
}

func (e *ResilientToolExecutor) execute(ctx context.Context, tool Tool, input string) (string, int, error) {
	start := time.Now()
	var lastErr error
	toolName := tool.Name()
	attempts := 0

attemptsLoop:
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break attemptsLoop
		}
		attempts++

		execCtx, cancel := context.WithTimeout(ctx, e.timeout)
		result, err := tool.Run(execCtx, input)
		cancel()

		if err == nil {
			e.recordMetrics(ctx, toolName, time.Since(start), true)
			slog.Debug("tool execution succeeded",
				slog.String("tool", toolName),
				slog.Int("attempt", attempts),
				slog.Duration("duration", time.Since(start)))
			return result, attempts, nil
		}

		lastErr = err
		slog.Warn("tool execution failed",
			slog.String("tool", toolName),
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()))

		if hasSideEffects(tool) || !e.isRetryable(err) {
			break attemptsLoop
		}

		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attemptsLoop
			case <-time.After(e.retryDelay):
			}
		}
	}

	e.recordMetrics(ctx, toolName, time.Since(start), false)
	return "", attempts, lastErr
}

// ExecutionResult contains detailed information about a tool execution.
type ExecutionResult struct {
	Output       string
	Error        error
	Attempts     int
	TotalLatency time.Duration
}

// ExecuteDetailed runs the tool and reports attempts and latency.
func (e *ResilientToolExecutor) ExecuteDetailed(ctx context.Context, tool Tool, input string) ExecutionResult {
	start := time.Now()
	output, attempts, err := e.execute(ctx, tool, input)
	return ExecutionResult{
		Output:       output,
		Error:        err,
		Attempts:     attempts,
		TotalLatency: time.Since(start),
	}
}

// isRetryable determines if an error should trigger a retry.
func (e *ResilientToolExecutor) isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidArguments) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"network",
		"timeout",
		"connection",
		"unavailable",
		"temporary",
		"retry",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

func (e *ResilientToolExecutor) recordMetrics(ctx context.Context, toolName string, duration time.Duration, success bool) {
	if e.metrics != nil {
		e.metrics.RecordToolCall(ctx, toolName, duration, success)
	}
}
