package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/chain"
	"github.com/fwojciec/chain/builtin"
	"github.com/fwojciec/chain/registry"
	"github.com/fwojciec/chain/shelltool"
	"github.com/fwojciec/chain/tui"
)

// buildRegistry resolves -T flags into a populated tool registry. A spec
// either names a builtin tool (version, now, read, glob) or a toolbox with
// optional configuration (Shell, Shell:{"workdir":"/tmp"},
// Shell:workdir=/tmp).
func buildRegistry(specs []string) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	boxes := registry.NewToolboxRegistry()
	if err := boxes.RegisterFactory("Shell", shelltool.Factory); err != nil {
		return nil, err
	}

	builtins := make(map[string]registry.Tool)
	for _, t := range builtin.Tools() {
		builtins[t.Schema.Name] = t
	}

	for _, spec := range specs {
		name, _, err := registry.ParseSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("tool spec %q: %w", spec, err)
		}

		if t, ok := builtins[name]; ok && name == strings.TrimSpace(spec) {
			if _, err := reg.Register(t); err != nil {
				return nil, fmt.Errorf("tool %q: %w", name, err)
			}
			continue
		}

		box, err := boxes.Build(spec)
		if err != nil {
			return nil, fmt.Errorf("tool spec %q: %w", spec, err)
		}
		if _, err := reg.RegisterToolbox(box); err != nil {
			return nil, fmt.Errorf("tool spec %q: %w", spec, err)
		}
	}
	return reg, nil
}

// debugAfterCall prints each completed tool call and its result.
func debugAfterCall(w io.Writer, theme chain.Theme) func(chain.ToolCall, chain.ToolResult) {
	styles := tui.NewStyles(theme)
	return func(call chain.ToolCall, tr chain.ToolResult) {
		fmt.Fprintf(w, "%s %s\n", styles.ToolCall.Render(call.Name), prettyJSON(call.Arguments))
		if tr.IsError {
			fmt.Fprintf(w, "%s %s\n", styles.Error.Render("error:"), tr.Output)
			return
		}
		fmt.Fprintf(w, "%s %s\n", styles.Success.Render("ok:"), tr.Output)
	}
}

// prettyJSON indents raw JSON for display, falling back to the input
// verbatim when it does not parse.
func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
