package accounting

import (
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
)

// FoldFillSeries applies every fill of a chronologically ordered series to an empty state.
//
// Fills are deduplicated by ID, the first occurrence wins. Results depend only on the
// state accumulated so far, so folding a prefix-extended series reproduces the earlier
// results unchanged. When a fill is rejected the fold stops: the state and results up to
// the rejected fill are returned together with the error.
func FoldFillSeries(fills []types.Fill) (types.AccountingState, []types.FillResult, error) {
	return ContinueFold(types.AccountingState{}, fills)
}

// ContinueFold applies fills on top of a state that already reflects exactly the fills
// that precede them. Deduplication only covers the fills passed in this call.
func ContinueFold(state types.AccountingState, fills []types.Fill) (types.AccountingState, []types.FillResult, error) {
	results := make([]types.FillResult, 0, len(fills))
	seen := make(map[string]struct{}, len(fills))

	for _, fill := range fills {
		if _, dup := seen[fill.ID]; dup {
			continue
		}

		seen[fill.ID] = struct{}{}

		next, result, err := ApplyFill(state, fill)
		if err != nil {
			return state, results, err
		}

		state = next
		results = append(results, result)
	}

	return state, results, nil
}

// SumFixedPnL adds up the realized P&L of a result series. For a complete fold it equals
// the final state's TotalFixedPnL.
func SumFixedPnL(results []types.FillResult) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.FixedPnL.TakeOr(decimal.Zero))
	}

	return total
}
