package agent

import (
	"context"

	"github.com/hrygo/orbita/plugin/ai"
)

// Handler serves one routed turn. Invoke returns the transcript with at least
// one final assistant message appended.
type Handler interface {
	Name() string
	Invoke(ctx context.Context, transcript []ai.Message) ([]ai.Message, error)
}

// State is a phase of the tool loop.
type State string

const (
	StateThinking State = "thinking"
	StateActing   State = "acting"
	StateDone     State = "done"
)

// Event types reported to an EventCallback.
const (
	EventTypeState      = "state"
	EventTypeThinking   = "thinking"
	EventTypeToolUse    = "tool_use"
	EventTypeToolResult = "tool_result"
	EventTypeError      = "error"
	EventTypeAnswer     = "answer"
)

// EventCallback observes the progress of a handler invocation.
type EventCallback func(eventType string, data string)

// Handlers maps routes to handlers by name.
type Handlers map[string]Handler

// Register adds handlers keyed by their names.
func (h Handlers) Register(handlers ...Handler) Handlers {
	for _, handler := range handlers {
		h[handler.Name()] = handler
	}
	return h
}

// Get returns the handler registered under name.
func (h Handlers) Get(name string) (Handler, bool) {
	handler, ok := h[name]
	return handler, ok
}
