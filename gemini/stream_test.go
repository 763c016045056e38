package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/chain"
	"github.com/fwojciec/chain/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks.
func mockChunks(chunks []*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func collectStreamEvents(t *testing.T, s chain.Stream) []chain.Event {
	t.Helper()
	var events []chain.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextDelta(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello"}}},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 5,
			},
		},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: " world"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 8,
			},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 2)
	assert.Equal(t, chain.EventTextDelta{Delta: "Hello"}, events[0])
	assert.Equal(t, chain.EventTextDelta{Delta: " world"}, events[1])
	assert.Equal(t, chain.StreamStateComplete, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
	assert.Equal(t, chain.StopEndTurn, resp.StopReason)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 8, resp.Usage.OutputTokens)
}

func TestStream_FunctionCall(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{
						Name: "multiply",
						Args: map[string]any{"a": float64(6), "b": float64(7)},
					},
				}}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 2)
	begin, ok := events[0].(chain.EventToolCallBegin)
	require.True(t, ok)
	assert.Equal(t, "multiply", begin.Name)
	assert.Equal(t, "call_1", begin.ID)

	end, ok := events[1].(chain.EventToolCallEnd)
	require.True(t, ok)
	assert.Equal(t, "multiply", end.Call.Name)
	assert.JSONEq(t, `{"a":6,"b":7}`, string(end.Call.Arguments))

	resp, err := s.Response()
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, chain.StopToolUse, resp.StopReason)
}

func TestStream_TextThenFunctionCalls(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "Let me check."}}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{ID: "fc-1", Name: "now", Args: map[string]any{}}},
					{FunctionCall: &genai.FunctionCall{ID: "fc-2", Name: "version"}},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)
	require.Len(t, events, 5)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", resp.Text)
	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "fc-1", resp.ToolCalls[0].ID)
	assert.Equal(t, "fc-2", resp.ToolCalls[1].ID)
	assert.Equal(t, json.RawMessage("{}"), resp.ToolCalls[1].Arguments)
	assert.Equal(t, chain.StopToolUse, resp.StopReason)
}

func TestStream_ThoughtPartsSkipped(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "reasoning", Thought: true},
					{Text: "Answer"},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 1)
	assert.Equal(t, chain.EventTextDelta{Delta: "Answer"}, events[0])

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Answer", resp.Text)
}

func TestStream_MaxTokens(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "truncat"}}},
				FinishReason: genai.FinishReasonMaxTokens,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	collectStreamEvents(t, s)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, chain.StopLength, resp.StopReason)
}

func TestStream_IteratorError(t *testing.T) {
	t.Parallel()
	iterErr := errors.New("connection reset")
	iterFn := func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "partial"}}},
			}},
		}, nil)
		yield(nil, iterErr)
	}

	s := gemini.NewStreamFromIter(context.Background(), iterFn)

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, chain.EventTextDelta{Delta: "partial"}, evt)

	_, err = s.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, iterErr)
	assert.Equal(t, chain.StreamStateError, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Text)
	assert.Equal(t, chain.StopError, resp.StopReason)
}

func TestStream_ResponseBeforeData(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(nil))

	_, err := s.Response()
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrStreamNotReady)
}

func TestStream_CloseMidStream(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "partial"}}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: " rest"}}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, chain.StreamStateClosed, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Text)
	assert.Equal(t, chain.StopAborted, resp.StopReason)

	_, err = s.Next()
	assert.ErrorIs(t, err, chain.ErrStreamClosed)
}
