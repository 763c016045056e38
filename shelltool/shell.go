// Package shelltool provides the Shell toolbox: command execution tools
// sharing one configured working directory and timeout. The configured
// instance is shared by every Shell_* tool within a chain but must not be
// shared across concurrently running chains.
package shelltool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/chain/registry"
)

const (
	defaultTimeout = 120 * time.Second
	maxOutputLines = 2000
	maxOutputBytes = 50 * 1024 // 50KB
)

// Interface compliance check.
var _ registry.Toolbox = (*Shell)(nil)

// Shell is a toolbox running shell commands in a fixed working directory.
type Shell struct {
	workdir string
	timeout time.Duration
	env     []string
}

// config is the JSON shape accepted by the Shell toolbox spec. A bare JSON
// string is treated as the working directory. Env is an allow-list of
// environment variable names passed through to commands; nil passes the
// full environment.
type config struct {
	Workdir string   `json:"workdir"`
	Timeout int      `json:"timeout"` // seconds
	Env     []string `json:"env"`
}

// New constructs a Shell toolbox from its JSON configuration.
func New(raw json.RawMessage) (*Shell, error) {
	var cfg config
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			// Scalar form: the workdir alone.
			var dir string
			if err2 := json.Unmarshal(raw, &dir); err2 != nil {
				return nil, fmt.Errorf("invalid Shell config: %w", err)
			}
			cfg.Workdir = dir
		}
	}

	s := &Shell{timeout: defaultTimeout}
	if cfg.Timeout > 0 {
		s.timeout = time.Duration(cfg.Timeout) * time.Second
	}
	if cfg.Workdir != "" {
		abs, err := filepath.Abs(cfg.Workdir)
		if err != nil {
			return nil, fmt.Errorf("invalid workdir: %w", err)
		}
		s.workdir = abs
	}
	s.env = cfg.Env
	return s, nil
}

// Factory adapts New to the registry.ToolboxFactory signature.
func Factory(raw json.RawMessage) (registry.Toolbox, error) {
	return New(raw)
}

// ToolboxName returns "Shell".
func (s *Shell) ToolboxName() string { return "Shell" }

type runArgs struct {
	Command string `json:"command" description:"The shell command to execute"`
}

// Tools returns the generated tools, each bound to this instance.
func (s *Shell) Tools() []registry.Tool {
	return []registry.Tool{
		registry.Must("run",
			fmt.Sprintf("Execute a shell command. Output is truncated to the last %d lines or %dKB.",
				maxOutputLines, maxOutputBytes/1024),
			s.run),
		registry.Must("cwd", "Return the working directory commands run in.",
			func(_ context.Context, _ struct{}) (string, error) {
				if s.workdir == "" {
					return ".", nil
				}
				return s.workdir, nil
			}),
	}
}

func (s *Shell) run(ctx context.Context, a runArgs) (string, error) {
	if a.Command == "" {
		return "", fmt.Errorf("command is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, "sh", "-c", a.Command)
	cmd.Dir = s.workdir
	if s.env != nil {
		cmd.Env = allowedEnv(s.env)
	}
	out, err := cmd.CombinedOutput()

	result := truncateTail(sanitize(string(out)), maxOutputLines, maxOutputBytes)
	body := result.Content
	if result.Truncated {
		body = fmt.Sprintf("[output truncated to last %d of %d lines]\n%s",
			result.OutputLines, result.TotalLines, body)
	}

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %s\n%s", s.timeout, body)
	}
	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("exit code %d\n%s", exitErr.ExitCode(), body)
		}
		return "", fmt.Errorf("failed to run command: %s", err)
	}
	return body, nil
}

// allowedEnv returns the current environment filtered to the named
// variables, always including PATH so commands remain resolvable.
func allowedEnv(names []string) []string {
	allowed := make(map[string]bool, len(names)+1)
	allowed["PATH"] = true
	for _, n := range names {
		allowed[n] = true
	}
	var env []string
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 && allowed[kv[:i]] {
			env = append(env, kv)
		}
	}
	return env
}
