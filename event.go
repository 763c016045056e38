package chain

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventToolCallBegin signals the start of a tool call.
type EventToolCallBegin struct {
	ID   string
	Name string
}

func (EventToolCallBegin) event() {}

// EventToolCallDelta represents an argument delta for a tool call.
type EventToolCallDelta struct {
	ID    string
	Delta string
}

func (EventToolCallDelta) event() {}

// EventToolCallEnd signals the completion of a tool call with the
// assembled call.
type EventToolCallEnd struct {
	Call ToolCall
}

func (EventToolCallEnd) event() {}

// EventToolResult is emitted by the chain controller after each executed
// tool call.
type EventToolResult struct {
	Result ToolResult
}

func (EventToolResult) event() {}

// EventTurnEnd is emitted by the chain controller at the end of each
// model-invoking turn. ToolRound is true for turns that requested tool
// calls and therefore produce no user-visible final text; the last turn of
// a chain always has ToolRound false unless the limit was reached.
type EventTurnEnd struct {
	ToolRound bool
}

func (EventTurnEnd) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventToolCallBegin{}
	_ Event = EventToolCallDelta{}
	_ Event = EventToolCallEnd{}
	_ Event = EventToolResult{}
	_ Event = EventTurnEnd{}
)
