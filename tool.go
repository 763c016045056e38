package chain

import (
	"context"
	"encoding/json"
)

// ToolSchema is the wire-facing description of a tool sent to the LLM.
// Parameters is a JSON Schema object describing the tool's arguments.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a tool invocation requested by the model. ID is assigned by
// the provider and opaque to this package. Each call is consumed exactly
// once by an Executor.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the outcome of executing a ToolCall. IsError marks
// tool-reported failures that are fed back to the model as text.
type ToolResult struct {
	ToolCallID string
	Name       string
	Output     string
	IsError    bool
}

// Executor runs tool calls. Execute returns a non-nil error only for
// failures that must propagate to the caller (an OperatorError); every
// other failure mode is encoded as an error ToolResult so the model can
// self-correct.
//
// ExecuteAll runs a round of calls and returns results in request order,
// regardless of any internal concurrency.
type Executor interface {
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
	ExecuteAll(ctx context.Context, calls []ToolCall) ([]ToolResult, error)
}

// TurnLogger receives each completed turn for durable logging. The chain
// controller calls it after every turn but never depends on its success.
type TurnLogger interface {
	LogTurn(ctx context.Context, conv *Conversation, resp Response) error
}
