package chain

import "context"

// Model is a strategy interface for LLM providers. Implementations live in
// their own packages (see gemini) and translate between this package's
// domain types and the provider's wire format, including the
// provider-specific serialization of attachments, tool calls, and tool
// results in History.
type Model interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Request carries one model invocation: the new prompt, the prior turns to
// replay as context, and the tool schemas to advertise. The provider uses
// its own defaults when fields are zero/nil.
type Request struct {
	Prompt      Prompt
	History     []Response
	Tools       []ToolSchema
	MaxTokens   int      // 0 = provider default
	Temperature *float64 // nil = provider default
}
