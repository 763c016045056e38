package chain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or tool registration failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Response() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")
)

// OperatorError marks a tool failure the model cannot act on, such as
// missing credentials for a tool's backing service. The executor propagates
// it to the top-level caller instead of converting it into an error
// ToolResult for the model.
type OperatorError struct {
	Msg string
}

// Error returns the operator-facing message.
func (e *OperatorError) Error() string { return e.Msg }

// Operatorf constructs an OperatorError with a formatted message.
// Tools return it to escalate a failure past the chain loop.
func Operatorf(format string, args ...any) *OperatorError {
	return &OperatorError{Msg: fmt.Sprintf(format, args...)}
}
