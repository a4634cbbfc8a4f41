package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/agent/tools"
)

// ToolRegistry holds the tools one handler may call.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]tools.Tool
}

// NewToolRegistry creates a registry with the given tools.
func NewToolRegistry(ts ...tools.Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{tools: make(map[string]tools.Tool)}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *ToolRegistry) Register(t tools.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns a tool by name.
func (r *ToolRegistry) Get(name string) (tools.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools sorted by name.
func (r *ToolRegistry) List() []tools.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]tools.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Descriptors returns the tool schemas passed to the model.
func (r *ToolRegistry) Descriptors() []ai.ToolDescriptor {
	list := r.List()
	descs := make([]ai.ToolDescriptor, 0, len(list))
	for _, t := range list {
		descs = append(descs, ai.ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return descs
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
