package mock

import (
	"context"

	"github.com/fwojciec/chain"
)

// Interface compliance check.
var _ chain.Executor = (*Executor)(nil)

// Executor is a test double for chain.Executor.
// Set ExecuteFn before calling either method. ExecuteAll delegates to
// ExecuteAllFn when set, and otherwise runs ExecuteFn per call in order.
type Executor struct {
	ExecuteFn    func(ctx context.Context, call chain.ToolCall) (chain.ToolResult, error)
	ExecuteAllFn func(ctx context.Context, calls []chain.ToolCall) ([]chain.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *Executor) Execute(ctx context.Context, call chain.ToolCall) (chain.ToolResult, error) {
	return e.ExecuteFn(ctx, call)
}

// ExecuteAll delegates to ExecuteAllFn when set, falling back to
// sequential ExecuteFn calls.
func (e *Executor) ExecuteAll(ctx context.Context, calls []chain.ToolCall) ([]chain.ToolResult, error) {
	if e.ExecuteAllFn != nil {
		return e.ExecuteAllFn(ctx, calls)
	}
	var results []chain.ToolResult
	for _, call := range calls {
		tr, err := e.ExecuteFn(ctx, call)
		if err != nil {
			return results, err
		}
		results = append(results, tr)
	}
	return results, nil
}
