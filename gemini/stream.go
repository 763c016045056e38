package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/chain"
	"google.golang.org/genai"
)

// stream implements [chain.Stream] by wrapping the genai SDK's streaming
// iterator. Gemini delivers function calls whole rather than as argument
// deltas, so each one yields an EventToolCallBegin immediately followed by
// an EventToolCallEnd.
type stream struct {
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	ctx     context.Context
	state   chain.StreamState
	resp    chain.Response
	queue   []chain.Event
	err     error
	callSeq int
}

// Interface compliance check.
var _ chain.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai streaming iterator in a [chain.Stream].
// Exported for testing.
func NewStreamFromIter(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) chain.Stream {
	next, stop := iter.Pull2(iterFn)
	return &stream{
		pull:  next,
		stop:  stop,
		ctx:   ctx,
		state: chain.StreamStateNew,
	}
}

// Next returns the next semantic event.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (chain.Event, error) {
	switch s.state {
	case chain.StreamStateComplete:
		return nil, io.EOF
	case chain.StreamStateError:
		return nil, s.err
	case chain.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", chain.ErrStreamClosed)
	}

	for {
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue = s.queue[1:]
			return evt, nil
		}

		chunk, err, ok := s.pull()
		if !ok {
			s.complete()
			return nil, io.EOF
		}
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = chain.StreamStateStreaming
		s.processChunk(chunk)
	}
}

// State returns the current stream state.
func (s *stream) State() chain.StreamState {
	return s.state
}

// Response returns the assembled Response.
func (s *stream) Response() (chain.Response, error) {
	if s.state == chain.StreamStateNew {
		return chain.Response{}, fmt.Errorf("gemini: %w", chain.ErrStreamNotReady)
	}
	return s.resp, nil
}

// Close releases the underlying iterator.
func (s *stream) Close() error {
	if s.state != chain.StreamStateComplete && s.state != chain.StreamStateError {
		s.state = chain.StreamStateClosed
		s.resp.StopReason = chain.StopAborted
	}
	s.stop()
	return nil
}

// complete marks normal completion and resolves the final stop reason.
func (s *stream) complete() {
	s.state = chain.StreamStateComplete
	if s.resp.HasToolCalls() {
		s.resp.StopReason = chain.StopToolUse
		return
	}
	if s.resp.StopReason == "" {
		s.resp.StopReason = chain.StopUnknown
	}
}

// terminate records a terminal error and the matching stop reason.
func (s *stream) terminate(err error) {
	s.state = chain.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
	if s.ctx.Err() != nil {
		s.resp.StopReason = chain.StopAborted
	} else {
		s.resp.StopReason = chain.StopError
	}
}

// processChunk folds one SDK chunk into the assembled response and queues
// the semantic events it produces.
func (s *stream) processChunk(chunk *genai.GenerateContentResponse) {
	if chunk.UsageMetadata != nil {
		s.resp.Usage.InputTokens = int(chunk.UsageMetadata.PromptTokenCount)
		s.resp.Usage.OutputTokens = int(chunk.UsageMetadata.CandidatesTokenCount)
	}

	if len(chunk.Candidates) == 0 {
		return
	}
	cand := chunk.Candidates[0]

	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			s.processPart(part)
		}
	}

	switch cand.FinishReason {
	case genai.FinishReasonStop:
		s.resp.StopReason = chain.StopEndTurn
	case genai.FinishReasonMaxTokens:
		s.resp.StopReason = chain.StopLength
	case "":
		// Mid-stream chunk.
	default:
		s.resp.StopReason = chain.StopUnknown
	}
}

func (s *stream) processPart(part *genai.Part) {
	if part == nil {
		return
	}
	if part.Text != "" && !part.Thought {
		s.resp.Text += part.Text
		s.queue = append(s.queue, chain.EventTextDelta{Delta: part.Text})
		return
	}
	if part.FunctionCall != nil {
		call := convertFunctionCall(part.FunctionCall)
		if call.ID == "" {
			s.callSeq++
			call.ID = fmt.Sprintf("call_%d", s.callSeq)
		}
		s.resp.ToolCalls = append(s.resp.ToolCalls, call)
		s.queue = append(s.queue,
			chain.EventToolCallBegin{ID: call.ID, Name: call.Name},
			chain.EventToolCallEnd{Call: call},
		)
	}
}

func convertFunctionCall(fc *genai.FunctionCall) chain.ToolCall {
	args := json.RawMessage("{}")
	if len(fc.Args) > 0 {
		// Args is map[string]any built by the SDK from API JSON.
		if b, err := json.Marshal(fc.Args); err == nil {
			args = b
		}
	}
	return chain.ToolCall{
		ID:        fc.ID,
		Name:      fc.Name,
		Arguments: args,
	}
}
