// Command chain runs a prompt / tool-call chain against an LLM and prints
// the final answer.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... chain [flags] [prompt]
//
// The prompt is read from the remaining arguments, or from stdin when no
// arguments are given.
//
// Flags:
//
//	-m, -model string    Model ID (default: gemini-2.5-flash)
//	-s, -system string   System prompt
//	-T, -tool value      Tool name or toolbox spec (repeatable)
//	-cl, -chain-limit n  Maximum tool-call rounds, 0 = unlimited (default 5)
//	-ta, -tools-approve  Confirm each tool call interactively
//	-td, -tools-debug    Print tool calls and results, enable debug logging
//	-db string           Turn log database path (default ~/.chain/logs.db)
//	-no-log              Disable turn logging
//	-no-stream           Print the final answer instead of streaming deltas
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/fwojciec/chain"
	"github.com/fwojciec/chain/gemini"
	"github.com/fwojciec/chain/markdown"
	"github.com/fwojciec/chain/registry"
	"github.com/fwojciec/chain/sqlite"
	"github.com/fwojciec/chain/tui"
	"go.uber.org/zap"
)

const defaultDBPath = "~/.chain/logs.db"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chain: %v\n", err)
		os.Exit(1)
	}
}

// stringSlice collects repeatable flag values.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func run() error {
	var (
		model        string
		system       string
		toolSpecs    stringSlice
		limit        int
		toolsDebug   bool
		toolsApprove bool
		dbPath       string
		noLog        bool
		noStream     bool
	)
	flag.StringVar(&model, "model", "", "Model ID")
	flag.StringVar(&model, "m", "", "Model ID (shorthand)")
	flag.StringVar(&system, "system", "", "System prompt")
	flag.StringVar(&system, "s", "", "System prompt (shorthand)")
	flag.Var(&toolSpecs, "tool", "Tool name or toolbox spec (repeatable)")
	flag.Var(&toolSpecs, "T", "Tool name or toolbox spec (shorthand)")
	flag.IntVar(&limit, "chain-limit", chain.DefaultLimit, "Maximum tool-call rounds, 0 = unlimited")
	flag.IntVar(&limit, "cl", chain.DefaultLimit, "Maximum tool-call rounds (shorthand)")
	flag.BoolVar(&toolsDebug, "tools-debug", false, "Print tool calls and results, enable debug logging")
	flag.BoolVar(&toolsDebug, "td", false, "Print tool calls and results (shorthand)")
	flag.BoolVar(&toolsApprove, "tools-approve", false, "Confirm each tool call interactively")
	flag.BoolVar(&toolsApprove, "ta", false, "Confirm each tool call (shorthand)")
	flag.StringVar(&dbPath, "db", defaultDBPath, "Turn log database path")
	flag.BoolVar(&noLog, "no-log", false, "Disable turn logging")
	flag.BoolVar(&noStream, "no-stream", false, "Print the final answer instead of streaming deltas")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	promptText, err := readPrompt(flag.Args(), os.Stdin)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if toolsDebug {
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer log.Sync()
	}

	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := gemini.New(ctx, key, gemini.WithModel(model))
	if err != nil {
		return err
	}

	reg, err := buildRegistry(toolSpecs)
	if err != nil {
		return err
	}

	theme := chain.DefaultTheme()
	opts := []chain.Option{
		chain.WithLimit(limit),
		chain.WithLogger(log),
	}
	if toolsApprove {
		opts = append(opts, chain.WithApprove(tui.Approver(theme)))
	}
	if toolsDebug {
		opts = append(opts, chain.WithAfterCall(debugAfterCall(os.Stderr, theme)))
	}
	if !noLog {
		path, err := expandHome(dbPath)
		if err != nil {
			return err
		}
		turnLog, err := sqlite.Open(path, sqlite.WithLogger(log))
		if err != nil {
			return fmt.Errorf("turn log: %w", err)
		}
		defer turnLog.Close()
		opts = append(opts, chain.WithTurnLogger(turnLog))
	}

	stdoutTTY := term.IsTerminal(os.Stdout.Fd())

	var status *tea.Program
	statusDone := make(chan struct{})
	switch {
	case !noStream:
		opts = append(opts, chain.WithEventHandler(streamEvents(os.Stdout)))
	case stdoutTTY:
		// Spinner on stderr while the chain runs silently.
		status = tea.NewProgram(
			tui.NewStatus("waiting for "+client.Model(), theme),
			tea.WithOutput(os.Stderr),
		)
		go func() {
			defer close(statusDone)
			_, _ = status.Run()
		}()
		opts = append(opts, chain.WithEventHandler(statusEvents(status)))
	}

	c := chain.New(client, registry.NewExecutor(reg), opts...)
	conv := chain.NewConversation(client.Model())
	result, runErr := c.Run(ctx, conv, chain.Prompt{Text: promptText, System: system}, reg.Schemas())

	if status != nil {
		status.Send(tui.StatusDoneMsg{})
		<-statusDone
	}
	if runErr != nil {
		return runErr
	}

	if !noStream {
		// Deltas already printed; close the line.
		fmt.Println()
		return nil
	}
	if stdoutTTY {
		width := 80
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			width = w
		}
		fmt.Println(markdown.Render(result.Text, width, theme))
		return nil
	}
	fmt.Println(result.Text)
	return nil
}

// readPrompt takes the prompt from argv, falling back to stdin.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return "", fmt.Errorf("no prompt: pass it as arguments or on stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no prompt: pass it as arguments or on stdin")
	}
	return text, nil
}

// streamEvents prints text deltas as they arrive.
func streamEvents(w io.Writer) func(chain.Event) {
	return func(evt chain.Event) {
		if d, ok := evt.(chain.EventTextDelta); ok {
			fmt.Fprint(w, d.Delta)
		}
	}
}

// statusEvents keeps the spinner message in step with the running chain.
func statusEvents(p *tea.Program) func(chain.Event) {
	return func(evt chain.Event) {
		switch e := evt.(type) {
		case chain.EventToolCallBegin:
			p.Send(tui.StatusUpdateMsg{Message: "running " + e.Name})
		case chain.EventTurnEnd:
			if e.ToolRound {
				p.Send(tui.StatusUpdateMsg{Message: "waiting for model"})
			}
		}
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
