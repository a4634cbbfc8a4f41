package router

import (
	"context"
	"sync"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/memory"
)

// MockRouter returns a fixed decision and records the inputs it saw.
type MockRouter struct {
	Decision *Decision

	mu       sync.Mutex
	inputs   []string
	contexts []*memory.Context
}

var _ Router = (*MockRouter)(nil)

// NewMockRouter creates a mock that always picks route.
func NewMockRouter(route Route, answer string) *MockRouter {
	return &MockRouter{Decision: &Decision{Route: route, Answer: answer, Method: MethodRule}}
}

func (m *MockRouter) Route(_ context.Context, transcript []ai.Message, mc *memory.Context) *Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, ai.LastUserMessage(transcript))
	m.contexts = append(m.contexts, mc)
	d := *m.Decision
	return &d
}

// Inputs returns the user messages routed so far.
func (m *MockRouter) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

// LastContext returns the memory context passed on the latest call.
func (m *MockRouter) LastContext() *memory.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.contexts) == 0 {
		return nil
	}
	return m.contexts[len(m.contexts)-1]
}
