package registry_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/fwojciec/chain"
	"github.com/fwojciec/chain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterBox is a toolbox whose tools share one mutable counter, checking
// that the registry routes every generated tool to the same instance.
type counterBox struct {
	prefix string
	count  int
}

func (b *counterBox) ToolboxName() string { return "Counter" }

func (b *counterBox) Tools() []registry.Tool {
	return []registry.Tool{
		registry.Must("incr", "Increment the counter.",
			func(_ context.Context, _ struct{}) (string, error) {
				b.count++
				return fmt.Sprintf("%s%d", b.prefix, b.count), nil
			}),
		registry.Must("read", "Read the counter.",
			func(_ context.Context, _ struct{}) (string, error) {
				return fmt.Sprintf("%s%d", b.prefix, b.count), nil
			}),
	}
}

func TestRegistry_RegisterToolbox(t *testing.T) {
	t.Parallel()

	t.Run("methods share the configured instance", func(t *testing.T) {
		t.Parallel()

		reg := registry.NewRegistry()
		names, err := reg.RegisterToolbox(&counterBox{prefix: "n="})
		require.NoError(t, err)
		assert.Equal(t, []string{"Counter_incr", "Counter_read"}, names)

		exec := registry.NewExecutor(reg)
		_, err = exec.Execute(context.Background(), chain.ToolCall{ID: "1", Name: "Counter_incr"})
		require.NoError(t, err)
		_, err = exec.Execute(context.Background(), chain.ToolCall{ID: "2", Name: "Counter_incr"})
		require.NoError(t, err)

		tr, err := exec.Execute(context.Background(), chain.ToolCall{ID: "3", Name: "Counter_read"})
		require.NoError(t, err)
		assert.Equal(t, "n=2", tr.Output)
	})

	t.Run("independent registrations get independent state", func(t *testing.T) {
		t.Parallel()

		regA := registry.NewRegistry()
		regB := registry.NewRegistry()
		_, err := regA.RegisterToolbox(&counterBox{})
		require.NoError(t, err)
		_, err = regB.RegisterToolbox(&counterBox{})
		require.NoError(t, err)

		execA := registry.NewExecutor(regA)
		execB := registry.NewExecutor(regB)
		_, err = execA.Execute(context.Background(), chain.ToolCall{ID: "1", Name: "Counter_incr"})
		require.NoError(t, err)

		tr, err := execB.Execute(context.Background(), chain.ToolCall{ID: "2", Name: "Counter_read"})
		require.NoError(t, err)
		assert.Equal(t, "0", tr.Output)
	})
}

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		spec       string
		wantName   string
		wantConfig string // "" means nil config
		wantErr    bool
	}{
		{"bare name", "Shell", "Shell", "", false},
		{"json object", `Shell:{"workdir":"/tmp","timeout":30}`, "Shell", `{"workdir":"/tmp","timeout":30}`, false},
		{"json scalar", `Shell:"/tmp"`, "Shell", `"/tmp"`, false},
		{"json number", `Shell:30`, "Shell", `30`, false},
		{"key value pairs", "Shell:workdir=/tmp,timeout=30,verbose=true", "Shell", `{"timeout":30,"verbose":true,"workdir":"/tmp"}`, false},
		{"empty spec", "", "", "", true},
		{"dangling pair", "Shell:workdir", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name, config, err := registry.ParseSpec(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			if tt.wantConfig == "" {
				assert.Nil(t, config)
				return
			}
			assert.JSONEq(t, tt.wantConfig, string(config))
		})
	}
}

func TestToolboxRegistry(t *testing.T) {
	t.Parallel()

	t.Run("builds from spec", func(t *testing.T) {
		t.Parallel()

		tr := registry.NewToolboxRegistry()
		err := tr.RegisterFactory("Counter", func(config json.RawMessage) (registry.Toolbox, error) {
			var cfg struct {
				Prefix string `json:"prefix"`
			}
			if len(config) > 0 {
				if err := json.Unmarshal(config, &cfg); err != nil {
					return nil, err
				}
			}
			return &counterBox{prefix: cfg.Prefix}, nil
		})
		require.NoError(t, err)

		tb, err := tr.Build(`Counter:{"prefix":"x="}`)
		require.NoError(t, err)
		assert.Equal(t, "Counter", tb.ToolboxName())
		assert.Len(t, tb.Tools(), 2)
	})

	t.Run("unknown toolbox", func(t *testing.T) {
		t.Parallel()

		tr := registry.NewToolboxRegistry()
		_, err := tr.Build("Nope")
		require.ErrorIs(t, err, chain.ErrToolNotFound)
	})

	t.Run("duplicate factory rejected", func(t *testing.T) {
		t.Parallel()

		tr := registry.NewToolboxRegistry()
		factory := func(json.RawMessage) (registry.Toolbox, error) { return &counterBox{}, nil }
		require.NoError(t, tr.RegisterFactory("Counter", factory))
		require.ErrorIs(t, tr.RegisterFactory("Counter", factory), chain.ErrValidation)
	})
}
