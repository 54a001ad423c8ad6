// Package accounting folds executed fills into a running position: size, average cost
// with and without commission, and realized P&L.
//
// The package is pure. It performs no I/O, keeps no global state and never reads a clock,
// so the same fill sequence always produces the same results. Callers serialize access
// per position; folds over different positions are independent.
package accounting

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// DivisionScale is the number of fractional digits every division keeps.
	DivisionScale = 32
	// PnLScale is the number of fractional digits realized P&L is rounded to.
	// It is half of DivisionScale, so the error left by a non-terminating average
	// never reaches a reported P&L digit.
	PnLScale = 16
)

// ApplyFill folds one fill into state and returns the new state with the fill's result.
//
// Fills must arrive in non-decreasing timestamp order. The engine does not re-sort; an
// earlier fill is rejected with ErrCodeFillOutOfOrder. A fill with a zero signed payment
// has no direction and is rejected with ErrCodeAmbiguousDirection. On error the input
// state is returned unchanged.
func ApplyFill(state types.AccountingState, fill types.Fill) (types.AccountingState, types.FillResult, error) {
	if err := checkFill(state, fill); err != nil {
		return state, types.FillResult{}, err
	}

	direction := fill.Direction().Decimal()
	quantity := fill.TradeQuantity

	// cost is positive when money is spent (buy) and negative when received (sell).
	// Commission always adds to cost, so it reduces proceeds on a sell.
	cost := fill.SignedPayment.Neg()
	costCorrected := cost.Add(fill.Commission.Abs())

	current := state.CurrentQuantity
	average := state.AveragePrice.TakeOr(decimal.Zero)
	averageCorrected := state.AveragePriceCorrected.TakeOr(decimal.Zero)

	// Total basis if the fill simply extends the existing position.
	sumUp := current.Mul(average).Add(cost)
	sumUpCorrected := current.Mul(averageCorrected).Add(costCorrected)

	next := current.Add(direction.Mul(quantity))

	newState := state
	newState.CurrentQuantity = next
	newState.LastTimestamp = fill.Timestamp
	newState.AppliedFills = state.AppliedFills + 1

	var (
		transition types.Transition
		fixedPnL   = optional.None[decimal.Decimal]()
	)

	switch {
	case isReversal(current, next):
		closedQuantity := current.Abs()
		if closedQuantity.GreaterThan(quantity) {
			// Unreachable for consistent data: a sign flip needs more quantity than the old size.
			return state, types.FillResult{}, errors.Newf(errors.ErrCodeInvalidProportion,
				"reversal closes %s units with a fill of only %s", closedQuantity, quantity).WithFill(fill.ID)
		}

		// closedCost is costCorrected * proportion with proportion = |current| / quantity,
		// multiplied before dividing so terminating quotients stay exact.
		closedCost := costCorrected.Mul(closedQuantity).DivRound(quantity, DivisionScale)
		openedCost := costCorrected.Sub(closedCost)

		pnl := decimal.NewFromInt(int64(current.Sign())).
			Mul(direction).
			Mul(current.Mul(averageCorrected).Add(closedCost))
		fixedPnL = optional.Some(pnl.Round(PnLScale))

		newState.AveragePrice = optional.Some(fill.Price)
		newState.AveragePriceCorrected = optional.Some(openedCost.DivRound(next, DivisionScale))
		transition = types.TransitionReverse

	case direction.Mul(current).IsNegative():
		pnl := direction.Mul(quantity).Mul(averageCorrected).Sub(costCorrected)
		fixedPnL = optional.Some(pnl.Round(PnLScale))

		if next.IsZero() {
			newState.AveragePrice = optional.None[decimal.Decimal]()
			newState.AveragePriceCorrected = optional.None[decimal.Decimal]()
			transition = types.TransitionClose
		} else {
			transition = types.TransitionReduce
		}

	default:
		transition = types.TransitionExtend
		if current.IsZero() {
			transition = types.TransitionOpen
		}

		if !next.IsZero() {
			newState.AveragePrice = optional.Some(sumUp.DivRound(next, DivisionScale).Abs())
			newState.AveragePriceCorrected = optional.Some(sumUpCorrected.DivRound(next, DivisionScale).Abs())
		}
	}

	newState.TotalFixedPnL = state.TotalFixedPnL.Add(fixedPnL.TakeOr(decimal.Zero))

	result := types.FillResult{
		FillID:                fill.ID,
		Timestamp:             fill.Timestamp,
		Sequence:              state.AppliedFills,
		Transition:            transition,
		AveragePrice:          newState.AveragePrice,
		AveragePriceCorrected: newState.AveragePriceCorrected,
		CurrentQuantity:       next,
		FixedPnL:              fixedPnL,
	}

	return newState, result, nil
}

// isReversal reports whether current and next are non-zero with strictly opposite signs.
func isReversal(current, next decimal.Decimal) bool {
	return current.Sign()*next.Sign() < 0
}

func checkFill(state types.AccountingState, fill types.Fill) error {
	if !fill.TradeQuantity.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidFill,
			"trade quantity must be positive, got %s", fill.TradeQuantity).WithFill(fill.ID)
	}

	if fill.SignedPayment.IsZero() {
		return errors.New(errors.ErrCodeAmbiguousDirection,
			"zero signed payment on a non-zero quantity fill").WithFill(fill.ID)
	}

	if state.AppliedFills > 0 && fill.Timestamp.Before(state.LastTimestamp) {
		return errors.Newf(errors.ErrCodeFillOutOfOrder,
			"fill at %s precedes last applied fill at %s",
			fill.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			state.LastTimestamp.Format("2006-01-02T15:04:05.000Z07:00")).WithFill(fill.ID)
	}

	return nil
}
