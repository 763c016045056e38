package mock

import (
	"context"

	"github.com/fwojciec/chain"
)

// Interface compliance check.
var _ chain.TurnLogger = (*TurnLogger)(nil)

// TurnLogger is a test double for chain.TurnLogger.
// Set LogTurnFn before calling LogTurn.
type TurnLogger struct {
	LogTurnFn func(ctx context.Context, conv *chain.Conversation, resp chain.Response) error
}

// LogTurn delegates to LogTurnFn.
func (l *TurnLogger) LogTurn(ctx context.Context, conv *chain.Conversation, resp chain.Response) error {
	return l.LogTurnFn(ctx, conv, resp)
}
