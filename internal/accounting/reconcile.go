package accounting

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
)

// Reconcile compares the computed position size with an externally reported one.
// A difference larger than tolerance yields a warning; it is never an error and the
// computed state stays authoritative for P&L.
func Reconcile(key types.PositionKey, state types.AccountingState, reported decimal.Decimal, tolerance decimal.Decimal) optional.Option[types.ReconciliationWarning] {
	diff := reported.Sub(state.CurrentQuantity)
	if diff.Abs().LessThanOrEqual(tolerance.Abs()) {
		return optional.None[types.ReconciliationWarning]()
	}

	return optional.Some(types.ReconciliationWarning{
		Key:      key,
		Computed: state.CurrentQuantity,
		Reported: reported,
		Diff:     diff,
	})
}
