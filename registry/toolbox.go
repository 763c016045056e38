package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/chain"
)

// Toolbox groups several tools under shared configuration and state: one
// configured instance (a connection, a working directory) serves every
// generated tool within a single chain. The instance is owned by whoever
// constructed it, not by the registry, so its lifetime is scoped to the
// configuration call that created it. Toolboxes are not safe for use
// across concurrently running chains unless documented otherwise.
type Toolbox interface {
	ToolboxName() string
	Tools() []Tool
}

// ToolboxFactory constructs a toolbox from its JSON configuration. The
// config is nil when the spec carried none.
type ToolboxFactory func(config json.RawMessage) (Toolbox, error)

// ToolboxRegistry maps toolbox names to factories. It is the registration
// hook for plugin-contributed toolboxes.
type ToolboxRegistry struct {
	factories map[string]ToolboxFactory
}

// NewToolboxRegistry creates an empty toolbox registry.
func NewToolboxRegistry() *ToolboxRegistry {
	return &ToolboxRegistry{factories: make(map[string]ToolboxFactory)}
}

// RegisterFactory adds a toolbox constructor under the given name.
// Duplicate names are rejected: two plugins competing for one toolbox name
// is a configuration error, not something to resolve silently.
func (tr *ToolboxRegistry) RegisterFactory(name string, f ToolboxFactory) error {
	if !chain.ValidToolName(name) {
		return fmt.Errorf("invalid toolbox name %q: %w", name, chain.ErrValidation)
	}
	if _, ok := tr.factories[name]; ok {
		return fmt.Errorf("toolbox %q already registered: %w", name, chain.ErrValidation)
	}
	tr.factories[name] = f
	return nil
}

// Build parses a toolbox spec ("Shell", "Shell:{...}", "Shell:key=value",
// "Shell:scalar") and invokes the matching factory.
func (tr *ToolboxRegistry) Build(spec string) (Toolbox, error) {
	name, config, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	f, ok := tr.factories[name]
	if !ok {
		return nil, fmt.Errorf("toolbox %q: %w", name, chain.ErrToolNotFound)
	}
	tb, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("toolbox %s: %w", name, err)
	}
	return tb, nil
}

// ParseSpec splits a toolbox spec into its name and canonical JSON
// configuration. The configuration part may be a JSON object, a JSON
// scalar, or comma-separated key=value pairs; key=value values that parse
// as JSON keep their type, anything else becomes a string.
func ParseSpec(spec string) (name string, config json.RawMessage, err error) {
	name, rest, found := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("empty toolbox spec: %w", chain.ErrValidation)
	}
	if !found || strings.TrimSpace(rest) == "" {
		return name, nil, nil
	}
	rest = strings.TrimSpace(rest)

	if json.Valid([]byte(rest)) {
		return name, json.RawMessage(rest), nil
	}

	obj := make(map[string]any)
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return "", nil, fmt.Errorf("toolbox spec %q: expected JSON or key=value pairs: %w", spec, chain.ErrValidation)
		}
		value = strings.TrimSpace(value)
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			obj[key] = parsed
		} else {
			obj[key] = value
		}
	}
	config, err = json.Marshal(obj)
	if err != nil {
		return "", nil, err
	}
	return name, config, nil
}
