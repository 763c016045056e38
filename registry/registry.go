// Package registry maps tool names to callable definitions and executes
// tool calls against them. A registry is built once per chain and is not
// shared across concurrently running chains.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/chain"
)

// ToolFunc is the canonical tool implementation signature. Arguments arrive
// as the raw JSON object the model produced; the returned string is fed
// back to the model verbatim.
type ToolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Tool pairs a wire-facing schema with its implementation. Tools are
// immutable after registration.
type Tool struct {
	Schema chain.ToolSchema
	Fn     ToolFunc
}

// Registry is a name-to-Tool mapping for a single chain execution.
// Lookups are exact; there is no fuzzy matching.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool and returns the name it was registered under. When
// the name is already taken the newcomer is deterministically suffixed
// (name_2, name_3, ...) so the collision stays observable instead of a
// tool being silently dropped.
func (r *Registry) Register(t Tool) (string, error) {
	if t.Fn == nil {
		return "", fmt.Errorf("tool %q has no implementation: %w", t.Schema.Name, chain.ErrValidation)
	}
	if !chain.ValidToolName(t.Schema.Name) {
		return "", fmt.Errorf("invalid tool name %q: %w", t.Schema.Name, chain.ErrValidation)
	}

	name := t.Schema.Name
	for i := 2; ; i++ {
		if _, taken := r.byName[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", t.Schema.Name, i)
	}
	t.Schema.Name = name

	r.byName[name] = t
	r.order = append(r.order, name)
	return name, nil
}

// RegisterToolbox registers every tool of a toolbox under names prefixed
// with the toolbox name ("Shell_run"). All generated tools share the single
// toolbox instance. Returns the assigned names.
func (r *Registry) RegisterToolbox(tb Toolbox) ([]string, error) {
	boxName := tb.ToolboxName()
	if !chain.ValidToolName(boxName) {
		return nil, fmt.Errorf("invalid toolbox name %q: %w", boxName, chain.ErrValidation)
	}
	var names []string
	for _, t := range tb.Tools() {
		t.Schema.Name = boxName + "_" + t.Schema.Name
		name, err := r.Register(t)
		if err != nil {
			return names, fmt.Errorf("toolbox %s: %w", boxName, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// Resolve looks up a tool by exact name.
func (r *Registry) Resolve(name string) (Tool, error) {
	t, ok := r.byName[name]
	if !ok {
		return Tool{}, fmt.Errorf("tool %q: %w", name, chain.ErrToolNotFound)
	}
	return t, nil
}

// Schemas returns the registered tool schemas in registration order, ready
// to advertise to a model.
func (r *Registry) Schemas() []chain.ToolSchema {
	schemas := make([]chain.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.byName[name].Schema)
	}
	return schemas
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
