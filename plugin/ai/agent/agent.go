package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/agent/tools"
	"github.com/hrygo/orbita/plugin/ai/timeout"
)

// DefaultAnswer is used when the model finishes without any text.
const DefaultAnswer = "Done."

// Agent is a Handler running a bounded tool-calling loop.
//
// Each iteration asks the model with the system prompt, the transcript and the
// tool schemas. A reply without tool calls ends the loop; otherwise every call
// is executed and its result, or its error, is appended as a tool message.
type Agent struct {
	name          string
	llm           ai.LLMService
	registry      *ToolRegistry
	executor      *tools.ResilientToolExecutor
	prompt        func() string
	maxIterations int
	timeout       time.Duration
	callback      EventCallback
}

var _ Handler = (*Agent)(nil)

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations bounds the number of model calls per invocation.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithExecutor replaces the default tool executor.
func WithExecutor(e *tools.ResilientToolExecutor) Option {
	return func(a *Agent) {
		a.executor = e
	}
}

// WithCallback reports loop events.
func WithCallback(cb EventCallback) Option {
	return func(a *Agent) {
		a.callback = cb
	}
}

// WithInvokeTimeout bounds one invocation. Zero disables the bound.
func WithInvokeTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.timeout = d
	}
}

// NewAgent creates a tool loop handler. prompt is evaluated on every
// invocation so it can carry the current time.
func NewAgent(name string, llm ai.LLMService, prompt func() string, registry *ToolRegistry, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, fmt.Errorf("agent %s: LLM service is required", name)
	}
	if registry == nil {
		registry, _ = NewToolRegistry()
	}
	if prompt == nil {
		prompt = func() string { return "" }
	}
	a := &Agent{
		name:          name,
		llm:           llm,
		registry:      registry,
		prompt:        prompt,
		maxIterations: timeout.MaxIterations,
		timeout:       timeout.AgentTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.executor == nil {
		a.executor = tools.NewResilientToolExecutor(nil)
	}
	return a, nil
}

// Name returns the handler name.
func (a *Agent) Name() string {
	return a.name
}

// Tools returns the handler's tool registry.
func (a *Agent) Tools() *ToolRegistry {
	return a.registry
}

type toolCallKey struct {
	name string
	args string
}

// Invoke runs the tool loop over transcript and returns it with the
// assistant and tool messages appended.
func (a *Agent) Invoke(ctx context.Context, transcript []ai.Message) ([]ai.Message, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	startTime := time.Now()
	out := ai.CloneTranscript(transcript)
	descriptors := a.registry.Descriptors()
	recent := make([]toolCallKey, 0, timeout.MaxRecentToolCalls)

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		a.emit(EventTypeState, string(StateThinking))
		a.emit(EventTypeThinking, "Agent is thinking...")

		messages := make([]ai.Message, 0, len(out)+1)
		if system := a.prompt(); system != "" {
			messages = append(messages, ai.SystemMessage(system))
		}
		messages = append(messages, out...)

		slog.Debug("agent: calling LLM",
			"agent", a.name,
			"iteration", iteration+1,
			"messages", len(messages),
		)
		resp, err := a.llm.ChatWithTools(ctx, messages, descriptors)
		if err != nil {
			a.emit(EventTypeError, err.Error())
			return out, fmt.Errorf("agent %s: LLM call failed: %w", a.name, err)
		}

		if len(resp.ToolCalls) == 0 {
			answer := resp.Content
			if answer == "" {
				answer = DefaultAnswer
			}
			out = append(out, ai.AssistantMessage(answer))
			a.emit(EventTypeAnswer, answer)
			a.emit(EventTypeState, string(StateDone))
			slog.Debug("agent execution completed",
				"agent", a.name,
				"iterations", iteration+1,
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
			return out, nil
		}

		a.emit(EventTypeState, string(StateActing))
		out = append(out, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			key := toolCallKey{name: call.Name, args: call.Arguments}
			result := a.runTool(ctx, call, containsCall(recent, key))
			recent = append(recent, key)
			if len(recent) > timeout.MaxRecentToolCalls {
				recent = recent[1:]
			}
			out = append(out, ai.ToolMessage(call.ID, call.Name, result))
			a.emit(EventTypeToolResult, result)
		}
	}

	a.emit(EventTypeError, ErrMaxIterations.Error())
	return out, fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations)
}

// runTool executes one call and always returns the text fed back to the model.
func (a *Agent) runTool(ctx context.Context, call ai.ToolCall, repeated bool) string {
	a.emit(EventTypeToolUse, fmt.Sprintf("%s %s", call.Name, call.Arguments))

	if repeated {
		slog.Warn("agent: repeated tool call", "agent", a.name, "tool", call.Name)
		return "Error: this exact call was already made. Use the earlier result or answer the user."
	}

	tool, ok := a.registry.Get(call.Name)
	if !ok {
		slog.Warn("agent: unknown tool", "agent", a.name, "tool", call.Name)
		return fmt.Sprintf("Error: %v: %s", ErrToolNotFound, call.Name)
	}

	slog.Debug("agent: executing tool",
		"agent", a.name,
		"tool", call.Name,
		"input", truncate(call.Arguments),
	)
	output, err := a.executor.Execute(ctx, tool, call.Arguments)
	if err != nil {
		slog.Warn("agent: tool failed", "agent", a.name, "tool", call.Name, "error", err)
		a.emit(EventTypeError, err.Error())
		return fmt.Sprintf("Error: %v", err)
	}
	return output
}

func (a *Agent) emit(eventType, data string) {
	if a.callback != nil {
		a.callback(eventType, data)
	}
}

func containsCall(recent []toolCallKey, key toolCallKey) bool {
	for _, prev := range recent {
		if prev == key {
			return true
		}
	}
	return false
}

// truncate shortens s to MaxTruncateLength runes for logging.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= timeout.MaxTruncateLength {
		return s
	}
	return string(runes[:timeout.MaxTruncateLength]) + "..."
}
