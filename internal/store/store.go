// Package store persists fill histories and their per-fill accounting results.
package store

import (
	"context"

	"github.com/rxtech-lab/argo-pnl/internal/types"
)

// FillStore keeps the fill history of every position together with the results of its last fold.
// The accounting engine never touches a FillStore; the ledger reads and writes it around a fold.
type FillStore interface {
	// SaveHistory atomically replaces the stored fills and results of key.
	SaveHistory(ctx context.Context, key types.PositionKey, fills []types.Fill, results []types.FillResult) error
	// LoadFills returns the stored fills of key in fold order. Unknown keys yield no fills.
	LoadFills(ctx context.Context, key types.PositionKey) ([]types.Fill, error)
	// LoadResults returns the stored results of key in fold order.
	LoadResults(ctx context.Context, key types.PositionKey) ([]types.FillResult, error)
	// Keys lists every position with stored fills, sorted by account then instrument.
	Keys(ctx context.Context) ([]types.PositionKey, error)
	// Delete removes every stored row of key.
	Delete(ctx context.Context, key types.PositionKey) error
	Close() error
}
