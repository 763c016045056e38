package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chain"
	"github.com/fwojciec/chain/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_RoundTrip(t *testing.T) {
	t.Parallel()

	logger, err := sqlite.Open(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)
	defer logger.Close()

	conv := chain.NewConversation("gemini-2.0-flash")
	resp := chain.Response{
		ID:         "resp-1",
		Prompt:     chain.Prompt{Text: "what is 2+2?", System: "be brief"},
		Text:       "",
		StopReason: chain.StopToolUse,
		ToolCalls: []chain.ToolCall{
			{ID: "call-1", Name: "calc", Arguments: json.RawMessage(`{"expr":"2+2"}`)},
		},
		ToolResults: []chain.ToolResult{
			{ToolCallID: "call-1", Name: "calc", Output: "4"},
		},
		Usage:     chain.Usage{InputTokens: 12, OutputTokens: 7},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	conv.Append(resp)
	require.NoError(t, logger.LogTurn(context.Background(), conv, resp))

	final := chain.Response{
		ID:         "resp-2",
		Prompt:     chain.Prompt{System: "be brief"},
		Text:       "4",
		StopReason: chain.StopEndTurn,
		Usage:      chain.Usage{InputTokens: 20, OutputTokens: 3},
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	conv.Append(final)
	require.NoError(t, logger.LogTurn(context.Background(), conv, final))

	turns, err := logger.Turns(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, "resp-1", turns[0].ID)
	assert.Equal(t, "what is 2+2?", turns[0].Prompt.Text)
	assert.Equal(t, "be brief", turns[0].Prompt.System)
	assert.Equal(t, chain.StopToolUse, turns[0].StopReason)
	require.Len(t, turns[0].ToolCalls, 1)
	assert.Equal(t, "calc", turns[0].ToolCalls[0].Name)
	assert.JSONEq(t, `{"expr":"2+2"}`, string(turns[0].ToolCalls[0].Arguments))
	require.Len(t, turns[0].ToolResults, 1)
	assert.Equal(t, "4", turns[0].ToolResults[0].Output)
	assert.False(t, turns[0].ToolResults[0].IsError)

	assert.Equal(t, "resp-2", turns[1].ID)
	assert.Equal(t, "4", turns[1].Text)
	assert.Empty(t, turns[1].ToolCalls)
	assert.Equal(t, chain.Usage{InputTokens: 20, OutputTokens: 3}, turns[1].Usage)
}

func TestLogger_ErrorResultPersisted(t *testing.T) {
	t.Parallel()

	logger, err := sqlite.Open(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)
	defer logger.Close()

	conv := chain.NewConversation("gemini-2.0-flash")
	resp := chain.Response{
		ID:         "resp-1",
		Prompt:     chain.Prompt{Text: "uppercase this"},
		StopReason: chain.StopToolUse,
		ToolCalls: []chain.ToolCall{
			{ID: "call-1", Name: "upper", Arguments: json.RawMessage(`{}`)},
		},
		ToolResults: []chain.ToolResult{
			{ToolCallID: "call-1", Name: "upper", Output: "tool 'upper' not found", IsError: true},
		},
		CreatedAt: time.Now().UTC(),
	}
	conv.Append(resp)
	require.NoError(t, logger.LogTurn(context.Background(), conv, resp))

	turns, err := logger.Turns(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Len(t, turns[0].ToolResults, 1)
	assert.True(t, turns[0].ToolResults[0].IsError)
	assert.Equal(t, "tool 'upper' not found", turns[0].ToolResults[0].Output)
}

func TestLogger_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chain.db")

	logger, err := sqlite.Open(path)
	require.NoError(t, err)

	conv := chain.NewConversation("gemini-2.0-flash")
	resp := chain.Response{
		ID:         "resp-1",
		Prompt:     chain.Prompt{Text: "hello"},
		Text:       "hi",
		StopReason: chain.StopEndTurn,
		CreatedAt:  time.Now().UTC(),
	}
	conv.Append(resp)
	require.NoError(t, logger.LogTurn(context.Background(), conv, resp))
	require.NoError(t, logger.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	turns, err := reopened.Turns(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hi", turns[0].Text)
}

func TestLogger_UnknownConversationEmpty(t *testing.T) {
	t.Parallel()

	logger, err := sqlite.Open(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)
	defer logger.Close()

	turns, err := logger.Turns(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
