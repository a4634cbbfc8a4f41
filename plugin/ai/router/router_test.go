package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/memory"
)

func replying(answer string) *ai.MockLLMService {
	llm := ai.NewMockLLMService()
	llm.ChatFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
		return answer, nil
	}
	return llm
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		route  Route
		answer string
	}{
		{"email", "email", RouteEmail, ""},
		{"budget padded", "  Budget\n", RouteBudget, ""},
		{"calendar", "CALENDAR", RouteCalendar, ""},
		{"email beats budget", "email budget", RouteEmail, ""},
		{"budget beats calendar", "calendar or budget", RouteBudget, ""},
		{"plain answer", "Hello! How can I help?", RouteEnd, "Hello! How can I help?"},
		{"answer is trimmed", "  Hi there  ", RouteEnd, "Hi there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseRoute(tt.raw)
			assert.Equal(t, tt.route, d.Route)
			assert.Equal(t, tt.answer, d.Answer)
			assert.Equal(t, MethodLLM, d.Method)
		})
	}
}

func TestRoute_Helpers(t *testing.T) {
	for _, r := range Routes {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Route("weather").Valid())
	assert.True(t, RouteEmail.IsHandler())
	assert.False(t, RouteEnd.IsHandler())
	assert.Equal(t, "budget", RouteBudget.String())
}

func TestService_TieBreakEmailOverBudget(t *testing.T) {
	svc := NewService(replying("email budget"))

	d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("check my mail and my balance")}, nil)

	assert.Equal(t, RouteEmail, d.Route)
	assert.Empty(t, d.Answer)
	assert.Equal(t, MethodLLM, d.Method)
}

func TestService_IdentityShortcut(t *testing.T) {
	llm := replying("should not be used")
	svc := NewService(llm)
	mc := &memory.Context{Profile: &memory.Profile{Name: "Quang"}}

	inputs := []string{"what is my name?", "What's my name", "who am I", "Do you remember my name?"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			d := svc.Route(context.Background(), []ai.Message{ai.UserMessage(input)}, mc)
			assert.Equal(t, RouteEnd, d.Route)
			assert.Equal(t, MethodMemory, d.Method)
			assert.Contains(t, d.Answer, "Quang")
		})
	}
	assert.Zero(t, llm.ChatCalls())
}

func TestService_IdentityWithoutNameAsksModel(t *testing.T) {
	llm := replying("I don't know your name yet. What should I call you?")
	svc := NewService(llm)

	d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("what is my name?")}, &memory.Context{})

	assert.Equal(t, RouteEnd, d.Route)
	assert.Equal(t, MethodLLM, d.Method)
	assert.Equal(t, 1, llm.ChatCalls())
}

func TestService_GreetingEndsWithEmptyMemory(t *testing.T) {
	llm := replying("Hello! How can I help you today?")
	svc := NewService(llm)

	d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("hello")}, &memory.Context{})

	assert.Equal(t, RouteEnd, d.Route)
	assert.Equal(t, "Hello! How can I help you today?", d.Answer)

	msgs := llm.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.NotContains(t, msgs[0].Content, "What you know about the user")
	assert.Contains(t, msgs[0].Content, "friendly")
}

func TestService_PromptCarriesMemory(t *testing.T) {
	llm := replying("calendar")
	svc := NewService(llm)
	mc := &memory.Context{
		Profile:     &memory.Profile{Name: "Quang", PreferredTone: "formal"},
		Preferences: []memory.Preference{{Type: "meeting_time", Value: "mornings", Importance: 7}},
	}

	d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("am I free tomorrow?")}, mc)
	assert.Equal(t, RouteCalendar, d.Route)

	system := llm.LastMessages()[0].Content
	assert.Contains(t, system, "<user_profile>")
	assert.Contains(t, system, "mornings")
	assert.Contains(t, system, "formal tone")
}

func TestService_ClassifiesLatestMessageOnly(t *testing.T) {
	llm := replying("Anything else?")
	svc := NewService(llm)
	transcript := []ai.Message{
		ai.UserMessage("read my email"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "fetch_emails", Arguments: "{}"}}},
		ai.ToolMessage("c1", "fetch_emails", "[]"),
		ai.AssistantMessage("Your inbox is empty."),
		ai.UserMessage("thanks"),
	}

	svc.Route(context.Background(), transcript, nil)

	msgs := llm.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, ai.UserMessage("thanks"), msgs[1])
}

func TestService_PromptBoundedByLongThread(t *testing.T) {
	llm := replying("Hi there!")
	svc := NewService(llm)
	var transcript []ai.Message
	for i := 0; i < 200; i++ {
		transcript = append(transcript,
			ai.UserMessage(fmt.Sprintf("send an email about budget %d", i)),
			ai.AssistantMessage("Done."))
	}
	transcript = append(transcript, ai.UserMessage("hello"))

	d := svc.Route(context.Background(), transcript, nil)

	assert.Equal(t, RouteEnd, d.Route)
	assert.Len(t, llm.LastMessages(), 2)
}

func TestService_Fallback(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		llm.ChatFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
			return "", errors.New("connection refused")
		}
		d := NewService(llm).Route(context.Background(), []ai.Message{ai.UserMessage("hi")}, nil)
		assert.Equal(t, RouteEnd, d.Route)
		assert.Equal(t, MethodFallback, d.Method)
		assert.Equal(t, FallbackAnswer, d.Answer)
	})

	t.Run("empty response", func(t *testing.T) {
		d := NewService(replying("   ")).Route(context.Background(), []ai.Message{ai.UserMessage("hi")}, nil)
		assert.Equal(t, MethodFallback, d.Method)
	})

	t.Run("timeout", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		llm.ChatFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		svc := NewService(llm, WithTimeout(20*time.Millisecond))
		d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("hi")}, nil)
		assert.Equal(t, MethodFallback, d.Method)
	})

	t.Run("no model", func(t *testing.T) {
		d := NewService(nil).Route(context.Background(), []ai.Message{ai.UserMessage("hi")}, nil)
		assert.Equal(t, MethodFallback, d.Method)
	})
}

func TestCompileRules(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		rs, err := CompileRules(nil)
		require.NoError(t, err)
		assert.Zero(t, rs.Len())
		_, ok := rs.Match("anything", "")
		assert.False(t, ok)
	})

	t.Run("unknown route", func(t *testing.T) {
		_, err := CompileRules([]profile.RouterRule{{Route: "weather", Expr: "true"}})
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := CompileRules([]profile.RouterRule{{Route: "email", Expr: "input.contains("}})
		assert.Error(t, err)
	})

	t.Run("non bool", func(t *testing.T) {
		_, err := CompileRules([]profile.RouterRule{{Route: "email", Expr: "input + name"}})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "bool"))
	})

	t.Run("first match wins", func(t *testing.T) {
		rs, err := CompileRules([]profile.RouterRule{
			{Route: "Budget", Expr: `input.contains("vnd")`},
			{Route: "email", Expr: `input.contains("inbox") || input.contains("vnd")`},
		})
		require.NoError(t, err)
		require.Equal(t, 2, rs.Len())

		route, ok := rs.Match("How many VND did I spend?", "")
		require.True(t, ok)
		assert.Equal(t, RouteBudget, route)

		route, ok = rs.Match("open my inbox", "")
		require.True(t, ok)
		assert.Equal(t, RouteEmail, route)
	})
}

func TestService_RuleLayerSkipsModel(t *testing.T) {
	rs, err := CompileRules([]profile.RouterRule{{Route: "calendar", Expr: `input.startsWith("/cal")`}})
	require.NoError(t, err)
	llm := replying("email")
	svc := NewService(llm, WithRules(rs))

	d := svc.Route(context.Background(), []ai.Message{ai.UserMessage("/cal tomorrow")}, nil)

	assert.Equal(t, RouteCalendar, d.Route)
	assert.Equal(t, MethodRule, d.Method)
	assert.Zero(t, llm.ChatCalls())

	d = svc.Route(context.Background(), []ai.Message{ai.UserMessage("anything new?")}, nil)
	assert.Equal(t, RouteEmail, d.Route)
	assert.Equal(t, 1, llm.ChatCalls())
}

func TestIsSelfQuery(t *testing.T) {
	assert.True(t, IsSelfQuery("Hey, what’s my name?"))
	assert.False(t, IsSelfQuery("my name is Quang"))
	assert.False(t, IsSelfQuery("what is my budget"))
}
