package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/chain"
)

// Interface compliance check.
var _ chain.Executor = (*Executor)(nil)

// Executor resolves tool calls in a Registry, validates their arguments,
// and invokes the implementations. Every failure mode except an
// OperatorError is contained as an error ToolResult so a single bad tool
// call cannot abort an otherwise-successful chain.
type Executor struct {
	reg     *Registry
	workers int
}

// ExecOption configures an Executor.
type ExecOption func(*Executor)

// WithWorkers sets the number of tool calls a round may run concurrently.
// The default of 1 keeps execution sequential; results are reassembled in
// request order either way, since providers expect result ordering to
// match call ordering.
func WithWorkers(n int) ExecOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewExecutor creates an Executor over the given registry.
func NewExecutor(reg *Registry, opts ...ExecOption) *Executor {
	e := &Executor{reg: reg, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a single tool call. Unknown names, invalid arguments, tool
// errors, and tool panics all produce an error ToolResult with a nil
// error; only an OperatorError returned by the tool propagates, with no
// ToolResult recorded.
func (e *Executor) Execute(ctx context.Context, call chain.ToolCall) (chain.ToolResult, error) {
	tool, err := e.reg.Resolve(call.Name)
	if err != nil {
		return errorResult(call, fmt.Sprintf("tool '%s' not found", call.Name)), nil
	}

	if err := ValidateArgs(tool.Schema.Parameters, call.Arguments); err != nil {
		return errorResult(call, fmt.Sprintf("invalid arguments for tool '%s': %s", call.Name, err)), nil
	}

	out, err := invoke(ctx, tool, call)
	if err != nil {
		var opErr *chain.OperatorError
		if errors.As(err, &opErr) {
			return chain.ToolResult{}, err
		}
		return errorResult(call, err.Error()), nil
	}

	return chain.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Output:     out,
	}, nil
}

// ExecuteAll runs a round of tool calls, sequentially by default or
// concurrently when configured with workers > 1, and returns results in
// request order. The first OperatorError cancels the remaining calls and
// propagates; results completed before it (in request order) are returned
// alongside the error.
func (e *Executor) ExecuteAll(ctx context.Context, calls []chain.ToolCall) ([]chain.ToolResult, error) {
	if e.workers <= 1 || len(calls) <= 1 {
		var results []chain.ToolResult
		for _, call := range calls {
			tr, err := e.Execute(ctx, call)
			if err != nil {
				return results, err
			}
			results = append(results, tr)
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chain.ToolResult, len(calls))
	errs := make([]error, len(calls))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call chain.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			tr, err := e.Execute(ctx, call)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = tr
		}(i, call)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results[:i], err
		}
	}
	return results, nil
}

// invoke runs the tool implementation, converting a panic into an error so
// a misbehaving tool cannot take down the chain.
func invoke(ctx context.Context, tool Tool, call chain.ToolCall) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool '%s' panicked: %v", call.Name, r)
		}
	}()
	return tool.Fn(ctx, call.Arguments)
}

func errorResult(call chain.ToolCall, msg string) chain.ToolResult {
	return chain.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Output:     msg,
		IsError:    true,
	}
}
