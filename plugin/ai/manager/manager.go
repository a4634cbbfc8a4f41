package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/orbita/internal/observability"
	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/agent"
	"github.com/hrygo/orbita/plugin/ai/memory"
	"github.com/hrygo/orbita/plugin/ai/router"
	"github.com/hrygo/orbita/plugin/ai/timeout"
)

const (
	// HandlerFailedReply is the assistant reply when a handler fails.
	HandlerFailedReply = "Sorry, something went wrong while handling your %s request. Please try again."

	// HandlerMissingReply is the assistant reply for a route without a handler.
	HandlerMissingReply = "Sorry, I can't help with %s requests yet."
)

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Transcript []ai.Message    `json:"transcript"`
	Reply      string          `json:"reply"`
	Route      router.Route    `json:"route"`
	Method     router.Method   `json:"method"`
	Memory     *memory.Context `json:"-"`
}

// Manager orchestrates a turn over a router, handlers and memory.
type Manager struct {
	router        router.Router
	handlers      agent.Handlers
	loader        *memory.Loader
	updater       *memory.Updater
	metrics       *observability.Metrics
	logger        *slog.Logger
	requireUserID bool
	updateTimeout time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithHandlers registers the handlers serving routes.
func WithHandlers(handlers ...agent.Handler) Option {
	return func(m *Manager) {
		m.handlers.Register(handlers...)
	}
}

// WithMetrics records turn metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLogger sets the turn logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRequireUserID rejects sessions without a user id instead of falling
// back to the thread id.
func WithRequireUserID(require bool) Option {
	return func(m *Manager) {
		m.requireUserID = require
	}
}

// WithUpdateTimeout bounds the post-turn memory update.
func WithUpdateTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.updateTimeout = d
		}
	}
}

// New creates a manager. The memory store is shared by the loader and the updater.
func New(r router.Router, store memory.Store, extractor memory.Extractor, opts ...Option) *Manager {
	return NewWithUpdater(r, memory.NewLoader(store), memory.NewUpdater(store, extractor), opts...)
}

// NewWithUpdater creates a manager with an explicit loader and updater.
func NewWithUpdater(r router.Router, loader *memory.Loader, updater *memory.Updater, opts ...Option) *Manager {
	m := &Manager{
		router:        r,
		handlers:      agent.Handlers{},
		loader:        loader,
		updater:       updater,
		updateTimeout: timeout.MemoryUpdateTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Invoke runs one turn: the user input is appended to transcript, routed and
// answered. Memory is updated after every branch, including handler failure.
// Only an invalid session config is returned as an error.
func (m *Manager) Invoke(ctx context.Context, cfg SessionConfig, transcript []ai.Message, input string) (*TurnResult, error) {
	userID, err := cfg.Resolve(m.requireUserID)
	if err != nil {
		return nil, err
	}

	turn := observability.NewTurnContext(m.logger, cfg.ThreadID, userID)
	ctx = observability.WithTurnContext(ctx, turn)
	turn.Debug("turn started", slog.Int(observability.LogFieldMessageLen, len(input)))

	out := append(ai.CloneTranscript(transcript), ai.UserMessage(input))
	result := &TurnResult{}
	handlerRoute := ""

	defer func() {
		m.updateMemory(ctx, turn, userID, out, handlerRoute)
		if m.metrics != nil {
			m.metrics.RecordTurn(string(result.Route), turn.Duration())
		}
		turn.Info("turn completed",
			slog.String("method", string(result.Method)),
			slog.Int64(observability.LogFieldDuration, turn.DurationMs()),
		)
	}()

	mc := m.loadMemory(ctx, turn, userID)
	result.Memory = mc

	decision := m.router.Route(ctx, out, mc)
	result.Route = decision.Route
	result.Method = decision.Method
	turn.Route = string(decision.Route)

	if decision.Route.IsHandler() {
		handlerRoute = string(decision.Route)
		out = m.runHandler(ctx, turn, decision.Route, out)
	} else {
		out = append(out, ai.AssistantMessage(decision.Answer))
	}

	result.Transcript = out
	result.Reply = lastAssistantReply(out)
	return result, nil
}

func (m *Manager) loadMemory(ctx context.Context, turn *observability.TurnContext, userID string) *memory.Context {
	mc, err := m.loader.Load(ctx, userID)
	if err != nil {
		turn.Warn("memory load failed, continuing without memory", slog.String("error", err.Error()))
		if m.metrics != nil {
			m.metrics.RecordMemoryFailure()
		}
		return &memory.Context{}
	}
	return mc
}

func (m *Manager) runHandler(ctx context.Context, turn *observability.TurnContext, route router.Route, transcript []ai.Message) []ai.Message {
	handler, ok := m.handlers.Get(string(route))
	if !ok {
		turn.Warn("no handler registered for route")
		return append(transcript, ai.AssistantMessage(fmt.Sprintf(HandlerMissingReply, route)))
	}

	out, err := handler.Invoke(ctx, transcript)
	if err != nil {
		turn.Error("handler failed", err, slog.String("handler", handler.Name()))
		if m.metrics != nil {
			m.metrics.RecordFailure(string(route))
		}
		if len(out) < len(transcript) {
			out = transcript
		}
		return append(out, ai.AssistantMessage(fmt.Sprintf(HandlerFailedReply, route)))
	}
	return out
}

// updateMemory runs detached from the caller's cancellation so a client
// disconnect does not lose the turn.
func (m *Manager) updateMemory(ctx context.Context, turn *observability.TurnContext, userID string, transcript []ai.Message, handlerRoute string) {
	if m.updater == nil {
		return
	}
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.updateTimeout)
	defer cancel()

	report := m.updater.Update(updateCtx, userID, transcript, handlerRoute)
	if err := report.Err(); err != nil {
		turn.Warn("memory update failed", slog.String("error", err.Error()))
		if m.metrics != nil {
			m.metrics.RecordMemoryFailure()
		}
		return
	}
	turn.Debug("memory updated",
		slog.Int("profile", report.Written[memory.CategoryProfile]),
		slog.Int("preferences", report.Written[memory.CategoryPreferences]),
		slog.Int("instructions", report.Written[memory.CategoryInstructions]),
	)
}

func lastAssistantReply(transcript []ai.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if msg.Role == ai.RoleAssistant && len(msg.ToolCalls) == 0 {
			return msg.Content
		}
	}
	return ""
}
