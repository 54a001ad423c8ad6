// Package feed turns external trade records (CSV exports, exchange APIs) into
// chronologically ordered fills ready to be folded by the accounting engine.
package feed

import (
	"context"
	"slices"

	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
)

// Source produces the fills of one upstream system.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Fetch returns every fill the source knows about, sorted chronologically with duplicate ids removed.
	Fetch(ctx context.Context) ([]types.Fill, error)
}

// Reporter is implemented by sources that can report position sizes independently
// of the fill history, for reconciliation.
type Reporter interface {
	ReportedQuantities(ctx context.Context) (map[types.PositionKey]decimal.Decimal, error)
}

// SortAndDedup drops fills whose id was already seen (first occurrence wins) and
// sorts the rest by timestamp. Fills sharing a timestamp keep their arrival order.
func SortAndDedup(fills []types.Fill) []types.Fill {
	seen := make(map[string]struct{}, len(fills))
	unique := make([]types.Fill, 0, len(fills))

	for _, f := range fills {
		if _, ok := seen[f.ID]; ok {
			continue
		}

		seen[f.ID] = struct{}{}
		unique = append(unique, f)
	}

	slices.SortStableFunc(unique, func(a, b types.Fill) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return unique
}

// GroupByKey splits fills into one series per position, preserving order within each series.
func GroupByKey(fills []types.Fill) map[types.PositionKey][]types.Fill {
	groups := make(map[types.PositionKey][]types.Fill)
	for _, f := range fills {
		groups[f.Key()] = append(groups[f.Key()], f)
	}

	return groups
}

// AttachCommissions adds fee records to the fills they reference by ParentID.
// A parent is either a fill id or the id of one of its legs; fill ids take precedence.
// The absolute amounts are summed into the fill commission. Records whose parent is
// not among fills are returned so the caller can report them.
func AttachCommissions(fills []types.Fill, records []types.CommissionRecord) ([]types.Fill, []types.CommissionRecord) {
	// parent id -> index into fills
	owners := make(map[string]int, len(fills))
	for i, f := range fills {
		owners[f.ID] = i
	}

	for i, f := range fills {
		for _, leg := range f.Legs {
			if _, ok := owners[leg.ID]; !ok {
				owners[leg.ID] = i
			}
		}
	}

	out := make([]types.Fill, len(fills))
	copy(out, fills)

	attached := make(map[int]bool)

	var unmatched []types.CommissionRecord

	for _, r := range records {
		idx, ok := owners[r.ParentID]
		if !ok {
			unmatched = append(unmatched, r)

			continue
		}

		if !attached[idx] {
			out[idx].Commission = out[idx].Commission.Abs()
			attached[idx] = true
		}

		out[idx].Commission = out[idx].Commission.Add(r.Amount.Abs())
	}

	return out, unmatched
}
