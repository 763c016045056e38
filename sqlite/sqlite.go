// Package sqlite persists chain turns to a local SQLite database. It is
// the durable log behind the CLI: one row per response plus child rows for
// the tool calls and results of that turn.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/chain"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	seq             INTEGER NOT NULL,
	prompt          TEXT NOT NULL,
	system          TEXT NOT NULL,
	text            TEXT NOT NULL,
	stop_reason     TEXT NOT NULL,
	input_tokens    INTEGER NOT NULL,
	output_tokens   INTEGER NOT NULL,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_conversation
	ON responses(conversation_id, seq);

CREATE TABLE IF NOT EXISTS tool_calls (
	response_id  TEXT NOT NULL REFERENCES responses(id),
	tool_call_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	arguments    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tool_results (
	response_id  TEXT NOT NULL REFERENCES responses(id),
	tool_call_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	output       TEXT NOT NULL,
	is_error     INTEGER NOT NULL
);
`

// Interface compliance check.
var _ chain.TurnLogger = (*Logger)(nil)

// Logger is a chain.TurnLogger backed by SQLite. It is safe for the
// chain's sequential call pattern; concurrent chains should use separate
// Logger instances or rely on SQLite's busy timeout.
type Logger struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the zap logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}

// Open creates or opens the database at path, creating parent directories
// and applying the schema as needed.
func Open(path string, opts ...Option) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	l := &Logger{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Logger) Close() error {
	return l.db.Close()
}

// LogTurn records one completed turn. The response is expected to be the
// most recently appended turn of conv.
func (l *Logger) LogTurn(ctx context.Context, conv *chain.Conversation, resp chain.Response) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id, model, created_at) VALUES (?, ?, ?)`,
		conv.ID, conv.Model, conv.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	seq := len(conv.Responses) - 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO responses
			(id, conversation_id, seq, prompt, system, text, stop_reason, input_tokens, output_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ID, conv.ID, seq, resp.Prompt.Text, resp.Prompt.System, resp.Text,
		string(resp.StopReason), resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	for _, call := range resp.ToolCalls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tool_calls (response_id, tool_call_id, name, arguments) VALUES (?, ?, ?, ?)`,
			resp.ID, call.ID, call.Name, string(call.Arguments),
		); err != nil {
			return fmt.Errorf("insert tool call: %w", err)
		}
	}

	for _, tr := range resp.ToolResults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tool_results (response_id, tool_call_id, name, output, is_error) VALUES (?, ?, ?, ?, ?)`,
			resp.ID, tr.ToolCallID, tr.Name, tr.Output, tr.IsError,
		); err != nil {
			return fmt.Errorf("insert tool result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.log.Debug("turn logged",
		zap.String("conversation_id", conv.ID),
		zap.String("response_id", resp.ID),
		zap.Int("seq", seq),
	)
	return nil
}

// Turns loads the logged turns of a conversation in chronological order.
func (l *Logger) Turns(ctx context.Context, conversationID string) ([]chain.Response, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, prompt, system, text, stop_reason, input_tokens, output_tokens, created_at
		FROM responses WHERE conversation_id = ? ORDER BY seq`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var turns []chain.Response
	for rows.Next() {
		var r chain.Response
		var stop string
		if err := rows.Scan(&r.ID, &r.Prompt.Text, &r.Prompt.System, &r.Text,
			&stop, &r.Usage.InputTokens, &r.Usage.OutputTokens, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.StopReason = chain.StopReason(stop)
		if r.ToolCalls, err = l.toolCalls(ctx, r.ID); err != nil {
			return nil, err
		}
		if r.ToolResults, err = l.toolResults(ctx, r.ID); err != nil {
			return nil, err
		}
		turns = append(turns, r)
	}
	return turns, rows.Err()
}

func (l *Logger) toolCalls(ctx context.Context, responseID string) ([]chain.ToolCall, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT tool_call_id, name, arguments FROM tool_calls WHERE response_id = ? ORDER BY rowid`,
		responseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tool calls: %w", err)
	}
	defer rows.Close()

	var calls []chain.ToolCall
	for rows.Next() {
		var c chain.ToolCall
		var args string
		if err := rows.Scan(&c.ID, &c.Name, &args); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		c.Arguments = []byte(args)
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (l *Logger) toolResults(ctx context.Context, responseID string) ([]chain.ToolResult, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT tool_call_id, name, output, is_error FROM tool_results WHERE response_id = ? ORDER BY rowid`,
		responseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tool results: %w", err)
	}
	defer rows.Close()

	var results []chain.ToolResult
	for rows.Next() {
		var r chain.ToolResult
		if err := rows.Scan(&r.ToolCallID, &r.Name, &r.Output, &r.IsError); err != nil {
			return nil, fmt.Errorf("scan tool result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
