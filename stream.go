package chain

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Model.Stream().
//
// State() returns the current StreamState. Callers can use it to determine
// whether Response() will return a partial or complete turn.
//
// Response() returns the assembled Response. Behavior by stream state:
//   - StreamStateComplete: complete response, nil error.
//   - StreamStateError: partial response, nil error. StopReason is StopError
//     for transport/protocol failures, StopAborted for context cancellation.
//   - StreamStateStreaming: partial response, nil error. Text and ToolCalls
//     reflect deltas received so far.
//   - StreamStateNew: zero-value response, non-nil error.
//   - StreamStateClosed: partial response with StopReason = StopAborted.
//     Subsequent Next() calls return error.
//   - If a terminal state (Complete/Error) was reached before Close(),
//     Response() returns the terminal-state result.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Response() (Response, error)
	Close() error
}
