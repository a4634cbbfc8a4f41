package agent

import (
	"context"
	"sync"

	"github.com/hrygo/orbita/plugin/ai"
)

// MockHandler is a scripted Handler for tests.
type MockHandler struct {
	HandlerName string
	Reply       string
	Err         error

	mu    sync.Mutex
	calls [][]ai.Message
}

var _ Handler = (*MockHandler)(nil)

// NewMockHandler creates a handler that always answers reply.
func NewMockHandler(name, reply string) *MockHandler {
	return &MockHandler{HandlerName: name, Reply: reply}
}

func (m *MockHandler) Name() string {
	return m.HandlerName
}

func (m *MockHandler) Invoke(ctx context.Context, transcript []ai.Message) ([]ai.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ai.CloneTranscript(transcript))
	m.mu.Unlock()

	if m.Err != nil {
		return transcript, m.Err
	}
	return append(ai.CloneTranscript(transcript), ai.AssistantMessage(m.Reply)), nil
}

// Calls returns the transcripts the handler was invoked with.
func (m *MockHandler) Calls() [][]ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ai.Message(nil), m.calls...)
}
