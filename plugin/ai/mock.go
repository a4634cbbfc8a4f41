package ai

import (
	"context"
	"errors"
	"sync"
)

// ErrMockNotConfigured is returned by MockLLMService when no behavior is set.
var ErrMockNotConfigured = errors.New("mock LLM: no response configured")

// MockLLMService is a scriptable LLMService for tests.
type MockLLMService struct {
	ChatFunc          func(ctx context.Context, messages []Message) (string, error)
	ChatWithToolsFunc func(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error)
	ChatJSONFunc      func(ctx context.Context, messages []Message, schema JSONSchema) (string, error)

	mu            sync.Mutex
	chatCalls     int
	toolCalls     int
	jsonCalls     int
	lastMessages  []Message
	toolResponses []*ChatResponse
}

var _ LLMService = (*MockLLMService)(nil)

// NewMockLLMService creates a mock without configured behavior.
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

// QueueToolResponses scripts successive ChatWithTools responses.
// Once exhausted, ChatWithToolsFunc (if set) takes over.
func (m *MockLLMService) QueueToolResponses(responses ...*ChatResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolResponses = append(m.toolResponses, responses...)
}

func (m *MockLLMService) Chat(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	m.chatCalls++
	m.lastMessages = CloneTranscript(messages)
	m.mu.Unlock()

	if m.ChatFunc == nil {
		return "", ErrMockNotConfigured
	}
	return m.ChatFunc(ctx, messages)
}

func (m *MockLLMService) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error) {
	m.mu.Lock()
	m.toolCalls++
	m.lastMessages = CloneTranscript(messages)
	if len(m.toolResponses) > 0 {
		resp := m.toolResponses[0]
		m.toolResponses = m.toolResponses[1:]
		m.mu.Unlock()
		return resp, nil
	}
	m.mu.Unlock()

	if m.ChatWithToolsFunc == nil {
		return nil, ErrMockNotConfigured
	}
	return m.ChatWithToolsFunc(ctx, messages, tools)
}

func (m *MockLLMService) ChatJSON(ctx context.Context, messages []Message, schema JSONSchema) (string, error) {
	m.mu.Lock()
	m.jsonCalls++
	m.lastMessages = CloneTranscript(messages)
	m.mu.Unlock()

	if m.ChatJSONFunc == nil {
		return "", ErrMockNotConfigured
	}
	return m.ChatJSONFunc(ctx, messages, schema)
}

// ChatCalls returns how many times Chat was called.
func (m *MockLLMService) ChatCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chatCalls
}

// ToolCalls returns how many times ChatWithTools was called.
func (m *MockLLMService) ToolCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toolCalls
}

// JSONCalls returns how many times ChatJSON was called.
func (m *MockLLMService) JSONCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jsonCalls
}

// LastMessages returns a copy of the messages from the most recent call.
func (m *MockLLMService) LastMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CloneTranscript(m.lastMessages)
}
