// Package tools holds the tool registry, the dispatcher that executes
// model tool calls, and the built-in handler set for R-Hat's overlay
// and lookup tools.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/rhat-labs/go-rhat/pkg/live"
)

// Tool is a callable tool. Parameters uses the Gemini function
// declaration property format.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args any) (string, error)
}

// Registry is a named set of tools. Registration is additive; tools
// can come from the built-in set or be added by the host app.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the previous
// tool.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tools: tool has no name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tools: %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// RegisterAll registers every tool in the slice, stopping at the first
// error.
func (r *Registry) RegisterAll(ts []Tool) error {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Declarations returns the registry as live session tool declarations,
// in registration order.
func (r *Registry) Declarations() []live.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]live.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, live.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}
