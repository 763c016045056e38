package chain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLimit is the default number of tool-call rounds a chain may run.
const DefaultLimit = 5

// State identifies a phase of the chain loop. StateDone and
// StateLimitReached are terminal.
type State int

const (
	StateAwaitingModel State = iota
	StateModelResponded
	StateExecutingTools
	StateDone
	StateLimitReached
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateModelResponded:
		return "model_responded"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	case StateLimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// Chain drives the prompt / tool-call / result loop to a terminal state.
// A Chain is stateless across runs; all turn history lives in the
// Conversation passed to Run.
type Chain struct {
	model     Model
	executor  Executor
	limit     int
	afterCall func(ToolCall, ToolResult)
	approve   func(ToolCall) bool
	onEvent   func(Event)
	turnLog   TurnLogger
	log       *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLimit sets the maximum number of tool-call rounds. The chain makes at
// most limit+1 model invocations: the initial turn plus one re-prompt per
// executed round. 0 means unlimited. Default is DefaultLimit.
func WithLimit(limit int) Option {
	return func(c *Chain) {
		if limit >= 0 {
			c.limit = limit
		}
	}
}

// WithAfterCall sets a callback invoked once per completed tool call,
// before the chain loops back to the model.
func WithAfterCall(fn func(ToolCall, ToolResult)) Option {
	return func(c *Chain) { c.afterCall = fn }
}

// WithApprove sets a per-call confirmation hook. A false return skips
// execution and records an error ToolResult telling the model the call was
// denied. When set, calls within a round execute strictly sequentially.
func WithApprove(fn func(ToolCall) bool) Option {
	return func(c *Chain) { c.approve = fn }
}

// WithEventHandler sets a callback that receives each streaming event
// during a run, plus the controller's own EventToolResult and EventTurnEnd
// events. If nil or not set, events are silently discarded.
func WithEventHandler(h func(Event)) Option {
	return func(c *Chain) { c.onEvent = h }
}

// WithTurnLogger sets the persistence collaborator. Logging failures are
// recorded at Warn level and never abort the chain.
func WithTurnLogger(l TurnLogger) Option {
	return func(c *Chain) { c.turnLog = l }
}

// WithLogger sets the zap logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Chain) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Chain with the given model and tool executor.
func New(model Model, executor Executor, opts ...Option) *Chain {
	c := &Chain{
		model:    model,
		executor: executor,
		limit:    DefaultLimit,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the terminal outcome of a chain run. State is StateDone when
// the model produced a final answer, StateLimitReached when the round limit
// stopped the loop first; Text is then the best-available partial output,
// which may be empty.
type Result struct {
	Text      string
	State     State
	Responses []Response
	Usage     Usage
}

// Run executes the chain loop: invoke the model with the conversation
// context, execute any requested tool calls, feed results back, and repeat
// until the model answers without tool calls or the round limit is reached.
// Every turn is appended to conv. Model invocation failures propagate
// unretried; tool failures are recovered as error ToolResults, except an
// OperatorError, which propagates with no ToolResult recorded.
func (c *Chain) Run(ctx context.Context, conv *Conversation, prompt Prompt, tools []ToolSchema) (*Result, error) {
	res := &Result{State: StateAwaitingModel}
	turns := 0
	p := prompt

	for {
		// The initial turn plus one re-prompt per executed round.
		if c.limit > 0 && turns >= c.limit+1 {
			res.State = StateLimitReached
			res.Text = conv.LastText()
			c.log.Debug("chain limit reached", zap.Int("turns", turns), zap.Int("limit", c.limit))
			return res, nil
		}

		resp, final, err := c.turn(ctx, conv, p, tools, res)
		turns++
		if err != nil {
			return nil, err
		}
		res.Usage = res.Usage.Add(resp.Usage)

		if final {
			res.State = StateDone
			res.Text = resp.Text
			return res, nil
		}

		// Subsequent turns carry no new user text; the executed tool
		// results travel in the conversation history.
		p = Prompt{System: prompt.System}
	}
}

// turn runs one model invocation and, when the response requests tools, one
// round of tool execution. It returns the appended Response and whether the
// chain is done.
func (c *Chain) turn(ctx context.Context, conv *Conversation, p Prompt, tools []ToolSchema, res *Result) (Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, false, err
	}

	req := Request{
		Prompt:  p,
		History: conv.Responses,
		Tools:   tools,
	}

	stream, err := c.model.Stream(ctx, req)
	if err != nil {
		return Response{}, false, err
	}
	defer stream.Close()

	// Drain the stream, forwarding events to the handler if set.
	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		c.emit(evt)
	}

	// Get the assembled response (partial or complete).
	resp, respErr := stream.Response()
	if respErr != nil {
		if streamErr != nil {
			return Response{}, false, streamErr
		}
		return Response{}, false, respErr
	}

	resp.Prompt = p
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now()
	}

	if streamErr != nil {
		// Keep the partial turn so the caller can inspect it.
		c.append(ctx, conv, resp, res)
		return resp, false, streamErr
	}

	if !resp.HasToolCalls() {
		c.append(ctx, conv, resp, res)
		c.emit(EventTurnEnd{ToolRound: false})
		return resp, true, nil
	}

	results, execErr := c.executeRound(ctx, resp.ToolCalls)
	// An OperatorError leaves no ToolResult for the failed call; results
	// completed before it are still recorded.
	resp.ToolResults = results
	c.append(ctx, conv, resp, res)
	if execErr != nil {
		return resp, false, execErr
	}
	c.emit(EventTurnEnd{ToolRound: true})
	return resp, false, nil
}

// executeRound runs one round of tool calls in request order. Results are
// always returned in that order; a nil error means every call produced a
// ToolResult (possibly an error result).
func (c *Chain) executeRound(ctx context.Context, calls []ToolCall) ([]ToolResult, error) {
	var results []ToolResult

	if c.approve != nil {
		// Interactive approval forces sequential execution.
		for _, call := range calls {
			if !c.approve(call) {
				tr := ToolResult{
					ToolCallID: call.ID,
					Name:       call.Name,
					Output:     "tool call denied by user",
					IsError:    true,
				}
				results = append(results, tr)
				c.finishCall(call, tr)
				continue
			}
			tr, err := c.executor.Execute(ctx, call)
			if err != nil {
				return results, err
			}
			results = append(results, tr)
			c.finishCall(call, tr)
		}
		return results, nil
	}

	results, err := c.executor.ExecuteAll(ctx, calls)
	if err != nil {
		return results, err
	}
	for i, tr := range results {
		c.finishCall(calls[i], tr)
	}
	return results, nil
}

func (c *Chain) finishCall(call ToolCall, tr ToolResult) {
	if c.afterCall != nil {
		c.afterCall(call, tr)
	}
	c.emit(EventToolResult{Result: tr})
	c.log.Debug("tool call finished",
		zap.String("tool", call.Name),
		zap.String("tool_call_id", call.ID),
		zap.Bool("is_error", tr.IsError),
	)
}

// append records a completed turn in the conversation, the run result, and
// the persistence collaborator.
func (c *Chain) append(ctx context.Context, conv *Conversation, resp Response, res *Result) {
	conv.Append(resp)
	res.Responses = append(res.Responses, resp)
	if c.turnLog == nil {
		return
	}
	if err := c.turnLog.LogTurn(ctx, conv, resp); err != nil {
		c.log.Warn("turn logging failed", zap.String("response_id", resp.ID), zap.Error(err))
	}
}

func (c *Chain) emit(evt Event) {
	if c.onEvent != nil {
		c.onEvent(evt)
	}
}
