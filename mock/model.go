// Package mock provides test doubles for chain interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/chain"
)

// Interface compliance check.
var _ chain.Model = (*Model)(nil)

// Model is a test double for chain.Model.
// Set StreamFn before calling Stream.
type Model struct {
	StreamFn func(ctx context.Context, req chain.Request) (chain.Stream, error)
}

// Stream delegates to StreamFn.
func (m *Model) Stream(ctx context.Context, req chain.Request) (chain.Stream, error) {
	return m.StreamFn(ctx, req)
}
