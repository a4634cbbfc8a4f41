package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldThreadID is the field name for the conversation thread.
	LogFieldThreadID = "thread_id"
	// LogFieldUserID is the field name for the memory identity.
	LogFieldUserID = "user_id"
	// LogFieldRoute is the field name for the route decision.
	LogFieldRoute = "route"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldMessageLen is the field name for message length.
	LogFieldMessageLen = "message_length"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// TurnContext carries the identity of one conversation turn for structured logging.
type TurnContext struct {
	RequestID string
	ThreadID  string
	UserID    string
	Route     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewTurnContext creates a turn context with a generated request ID.
func NewTurnContext(logger *slog.Logger, threadID, userID string) *TurnContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnContext{
		RequestID: uuid.New().String(),
		ThreadID:  threadID,
		UserID:    userID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (t *TurnContext) Info(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, t.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (t *TurnContext) Debug(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, t.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (t *TurnContext) Warn(msg string, attrs ...slog.Attr) {
	t.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, t.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (t *TurnContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	t.Logger.LogAttrs(context.Background(), slog.LevelError, msg, t.baseAttrsAppended(allAttrs...)...)
}

// Duration returns the elapsed time since the turn started.
func (t *TurnContext) Duration() time.Duration {
	return time.Since(t.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (t *TurnContext) DurationMs() int64 {
	return t.Duration().Milliseconds()
}

func (t *TurnContext) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String(LogFieldRequestID, t.RequestID),
		slog.String(LogFieldThreadID, t.ThreadID),
		slog.String(LogFieldUserID, t.UserID),
	}
	if t.Route != "" {
		attrs = append(attrs, slog.String(LogFieldRoute, t.Route))
	}
	return attrs
}

func (t *TurnContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	return append(t.baseAttrs(), attrs...)
}

type ctxKey struct{}

// WithTurnContext adds the turn context to the context.
func WithTurnContext(ctx context.Context, turn *TurnContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, turn)
}

// FromContext extracts the turn context from the context.
func FromContext(ctx context.Context) (*TurnContext, bool) {
	turn, ok := ctx.Value(ctxKey{}).(*TurnContext)
	return turn, ok
}

// LoggerFromContext returns a logger enriched with the turn fields, or the default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	turn, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	args := make([]any, 0, 4)
	for _, attr := range turn.baseAttrs() {
		args = append(args, attr)
	}
	return turn.Logger.With(args...)
}
