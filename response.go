package chain

import (
	"encoding/json"
	"time"
)

// Response is one model-invoking turn: the prompt that produced it, the
// assembled text, any tool calls the model requested, and the results of
// executing them. A Response is immutable once appended to a Conversation;
// only name, arguments, and results are ever persisted, never the tool
// implementations themselves.
type Response struct {
	ID          string
	Prompt      Prompt
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	StopReason  StopReason
	Usage       Usage
	Raw         json.RawMessage // opaque provider payload, if any
	CreatedAt   time.Time
}

// HasToolCalls reports whether the model requested any tool calls in this
// turn.
func (r Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }
