package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/memory"
	"github.com/hrygo/orbita/plugin/ai/timeout"
)

// DefaultTimeout bounds the routing completion.
const DefaultTimeout = timeout.RouterTimeout

// FallbackAnswer is returned when the model cannot be reached.
const FallbackAnswer = "Sorry, I can't process your request right now. Please try again in a moment."

const routingPrompt = `You are Orbita, a personal assistant that coordinates specialist helpers.
%s
Decide how to handle the latest user message:
- If the user wants to read, check or send email, reply with only the word "email".
- If the user asks about their budget, balance, spending or bank transactions, reply with only the word "budget".
- If the user asks about their calendar, schedule, meetings or free time, reply with only the word "calendar".
- Otherwise answer the user directly in a %s tone. Use what you know about them when it helps.`

// Service routes a turn in layers: identity shortcut, configured rules,
// then a single model completion.
type Service struct {
	llm     ai.LLMService
	rules   *RuleSet
	timeout time.Duration
}

var _ Router = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRules installs a compiled rule layer.
func WithRules(rules *RuleSet) ServiceOption {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a router service.
func NewService(llm ai.LLMService, opts ...ServiceOption) *Service {
	s := &Service{llm: llm, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Route decides the route for the latest user message in transcript.
func (s *Service) Route(ctx context.Context, transcript []ai.Message, mc *memory.Context) *Decision {
	start := time.Now()
	input := ai.LastUserMessage(transcript)

	// Layer 1: identity shortcut
	if name := mc.Name(); name != "" && IsSelfQuery(input) {
		slog.Debug("route decided from memory",
			"input", truncate(input, 50),
			"latency_ms", time.Since(start).Milliseconds())
		return &Decision{Route: RouteEnd, Answer: identityAnswer(name), Method: MethodMemory}
	}

	// Layer 2: configured rules
	if route, ok := s.rules.Match(input, mc.Name()); ok {
		slog.Debug("route decided by rule",
			"input", truncate(input, 50),
			"route", route,
			"latency_ms", time.Since(start).Milliseconds())
		if route == RouteEnd {
			// A rule may force a direct answer, which still needs the model.
			return s.classify(ctx, transcript, mc, start)
		}
		return &Decision{Route: route, Method: MethodRule}
	}

	// Layer 3: model
	return s.classify(ctx, transcript, mc, start)
}

func (s *Service) classify(ctx context.Context, transcript []ai.Message, mc *memory.Context, start time.Time) *Decision {
	if s.llm == nil {
		return fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Only the latest user message is classified, so the prompt stays
	// bounded however long the thread grows.
	input := ai.LastUserMessage(transcript)
	messages := []ai.Message{
		ai.SystemMessage(buildPrompt(mc)),
		ai.UserMessage(input),
	}

	raw, err := s.llm.Chat(ctx, messages)
	if err != nil {
		slog.Warn("router completion failed", "error", err)
		return fallback()
	}
	if strings.TrimSpace(raw) == "" {
		slog.Warn("router completion was empty")
		return fallback()
	}

	decision := ParseRoute(raw)
	slog.Debug("route decided by model",
		"input", truncate(input, 50),
		"route", decision.Route,
		"latency_ms", time.Since(start).Milliseconds())
	return decision
}

func buildPrompt(mc *memory.Context) string {
	tone := memory.DefaultTone
	if mc != nil && mc.Profile != nil {
		tone = mc.Profile.Tone()
	}
	known := ""
	if rendered := mc.Render(); rendered != "" {
		known = "\nWhat you know about the user:\n" + rendered + "\n"
	}
	return fmt.Sprintf(routingPrompt, known, tone)
}

func fallback() *Decision {
	return &Decision{Route: RouteEnd, Answer: FallbackAnswer, Method: MethodFallback}
}

// truncate truncates a string to max length.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
