// Package router decides which handler serves a user message.
package router

import (
	"context"
	"strings"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/memory"
)

// Route is the destination of a turn.
type Route string

const (
	RouteEmail    Route = "email"
	RouteBudget   Route = "budget"
	RouteCalendar Route = "calendar"
	RouteEnd      Route = "end"
)

// Routes lists every route in keyword precedence order.
var Routes = []Route{RouteEmail, RouteBudget, RouteCalendar, RouteEnd}

func (r Route) String() string {
	return string(r)
}

// Valid reports whether r is one of the known routes.
func (r Route) Valid() bool {
	switch r {
	case RouteEmail, RouteBudget, RouteCalendar, RouteEnd:
		return true
	}
	return false
}

// IsHandler reports whether r is served by a handler rather than answered directly.
func (r Route) IsHandler() bool {
	return r.Valid() && r != RouteEnd
}

// Method records how a decision was reached.
type Method string

const (
	MethodMemory   Method = "memory"
	MethodRule     Method = "rule"
	MethodLLM      Method = "llm"
	MethodFallback Method = "fallback"
)

// Decision is the routing outcome for one turn.
type Decision struct {
	Route Route
	// Answer is the direct reply, set only when Route is RouteEnd.
	Answer string
	Method Method
}

// Router picks a route for the latest user message of a transcript.
// Model failures never surface as errors; they degrade to an end decision.
type Router interface {
	Route(ctx context.Context, transcript []ai.Message, mc *memory.Context) *Decision
}

// handlerKeywords are checked in order; the first hit wins.
var handlerKeywords = []Route{RouteEmail, RouteBudget, RouteCalendar}

// ParseRoute turns a raw model answer into a decision. The answer is
// normalized and searched for handler keywords with fixed precedence
// email > budget > calendar. Anything else is a direct answer.
func ParseRoute(raw string) *Decision {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, r := range handlerKeywords {
		if strings.Contains(normalized, string(r)) {
			return &Decision{Route: r, Method: MethodLLM}
		}
	}
	return &Decision{Route: RouteEnd, Answer: strings.TrimSpace(raw), Method: MethodLLM}
}
