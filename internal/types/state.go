package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Regime is the latent state of a position: flat or positioned.
type Regime string

const (
	RegimeFlat       Regime = "FLAT"
	RegimePositioned Regime = "POSITIONED"
)

// Side of a non-flat position.
type Side string

const (
	SideFlat  Side = "FLAT"
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Transition names the case a fill took through the accounting state machine.
type Transition string

const (
	// TransitionOpen opens a position from flat.
	TransitionOpen Transition = "OPEN"
	// TransitionExtend adds exposure in the existing direction.
	TransitionExtend Transition = "EXTEND"
	// TransitionReduce partially closes existing exposure.
	TransitionReduce Transition = "REDUCE"
	// TransitionClose brings the position exactly to flat.
	TransitionClose Transition = "CLOSE"
	// TransitionReverse closes the position and opens the opposite side in one fill.
	TransitionReverse Transition = "REVERSE"
)

// Realizes reports whether fills taking this transition realize P&L.
func (t Transition) Realizes() bool {
	return t == TransitionReduce || t == TransitionClose || t == TransitionReverse
}

// AccountingState is the running accounting of one position.
// The zero value is the empty flat state.
type AccountingState struct {
	// CurrentQuantity is positive when long, negative when short, zero when flat.
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	// AveragePrice is the unit cost ignoring commission. None exactly when flat.
	AveragePrice optional.Option[decimal.Decimal] `json:"average_price"`
	// AveragePriceCorrected is the unit cost with commission amortized into the basis. None exactly when flat.
	AveragePriceCorrected optional.Option[decimal.Decimal] `json:"average_price_corrected"`
	// TotalFixedPnL is the realized P&L summed over every fill applied so far.
	TotalFixedPnL decimal.Decimal `json:"total_fixed_pnl"`
	// LastTimestamp is the timestamp of the last applied fill.
	LastTimestamp time.Time `json:"last_timestamp"`
	// AppliedFills counts the fills folded into this state.
	AppliedFills int `json:"applied_fills"`
}

// Regime returns whether the position is flat or positioned.
func (s AccountingState) Regime() Regime {
	if s.CurrentQuantity.IsZero() {
		return RegimeFlat
	}

	return RegimePositioned
}

// Side returns the direction of the open exposure.
func (s AccountingState) Side() Side {
	switch s.CurrentQuantity.Sign() {
	case 1:
		return SideLong
	case -1:
		return SideShort
	default:
		return SideFlat
	}
}

// FillResult is the accounting outcome attached to one processed fill.
type FillResult struct {
	FillID    string    `json:"fill_id"`
	Timestamp time.Time `json:"timestamp"`
	// Sequence is the zero based position of the fill in its folded series.
	Sequence              int                              `json:"sequence"`
	Transition            Transition                       `json:"transition"`
	AveragePrice          optional.Option[decimal.Decimal] `json:"average_price"`
	AveragePriceCorrected optional.Option[decimal.Decimal] `json:"average_price_corrected"`
	// CurrentQuantity is the position size immediately after this fill.
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	// FixedPnL is the P&L realized by this fill only. None for opening and extending fills.
	FixedPnL optional.Option[decimal.Decimal] `json:"fixed_pnl"`
}

// Position is the accounting of one key together with the history it was folded from.
type Position struct {
	Key     PositionKey     `json:"key"`
	State   AccountingState `json:"state"`
	Fills   []Fill          `json:"fills"`
	Results []FillResult    `json:"results"`
	// ReportedQuantity is the last externally reported size, None until reconciled.
	ReportedQuantity optional.Option[decimal.Decimal] `json:"reported_quantity"`
}

// ReconciliationWarning reports a computed position size that disagrees with an
// independently reported one. It is a warning; the computed state stays authoritative.
type ReconciliationWarning struct {
	Key      PositionKey     `json:"key"`
	Computed decimal.Decimal `json:"computed"`
	Reported decimal.Decimal `json:"reported"`
	// Diff is Reported minus Computed.
	Diff decimal.Decimal `json:"diff"`
}
