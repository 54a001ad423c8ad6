package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the signed side of a fill: +1 for a buy, -1 for a sell.
type Direction int

const (
	DirectionNone Direction = 0
	DirectionBuy  Direction = 1
	DirectionSell Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "BUY"
	case DirectionSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Decimal returns the direction as a decimal multiplier.
func (d Direction) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(d))
}

// PositionKey identifies one accounting state: one instrument held by one account.
type PositionKey struct {
	Account    string `yaml:"account" json:"account" csv:"account" validate:"required"`
	Instrument string `yaml:"instrument" json:"instrument" csv:"instrument" validate:"required"`
}

func (k PositionKey) String() string {
	return fmt.Sprintf("%s/%s", k.Account, k.Instrument)
}

// TradeLeg is one partial execution aggregated into a Fill.
type TradeLeg struct {
	ID       string          `yaml:"id" json:"id" csv:"id" validate:"required"`
	Quantity decimal.Decimal `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `yaml:"price" json:"price" csv:"price" validate:"gte=0"`
}

// Fill is one executed trade event affecting a position.
type Fill struct {
	ID         string    `yaml:"id" json:"id" csv:"id" validate:"required"`
	Account    string    `yaml:"account" json:"account" csv:"account" validate:"required"`
	Instrument string    `yaml:"instrument" json:"instrument" csv:"instrument" validate:"required"`
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	// SignedPayment is the net cash flow of the event.
	// Negative for an outgoing payment (buy), positive for incoming (sell).
	SignedPayment decimal.Decimal `yaml:"signed_payment" json:"signed_payment" csv:"signed_payment"`
	// Price is the per-lot execution price. It only seeds the average price of a reversed position.
	Price decimal.Decimal `yaml:"price" json:"price" csv:"price" validate:"gte=0"`
	// TradeQuantity is the total executed quantity, the sum of the legs when legs are present.
	TradeQuantity decimal.Decimal `yaml:"trade_quantity" json:"trade_quantity" csv:"trade_quantity" validate:"gt=0"`
	// Commission is the fee charged on this fill. Its absolute value is always treated as extra cost.
	Commission decimal.Decimal `yaml:"commission" json:"commission" csv:"commission"`
	Legs       []TradeLeg      `yaml:"legs" json:"legs,omitempty" csv:"-" validate:"dive"`
}

// Key returns the position this fill belongs to.
func (f Fill) Key() PositionKey {
	return PositionKey{Account: f.Account, Instrument: f.Instrument}
}

// Direction derives the side from the payment sign, which is the source of truth.
// A zero payment yields DirectionNone.
func (f Fill) Direction() Direction {
	return Direction(-f.SignedPayment.Sign())
}

// SignedQuantity is the quantity delta this fill applies to the position.
func (f Fill) SignedQuantity() decimal.Decimal {
	return f.Direction().Decimal().Mul(f.TradeQuantity)
}

// CommissionRecord is a fee reported on its own record and linked to the fill it taxes by ParentID.
type CommissionRecord struct {
	ID        string          `yaml:"id" json:"id" csv:"id" validate:"required"`
	ParentID  string          `yaml:"parent_id" json:"parent_id" csv:"parent_id" validate:"required"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount" csv:"amount"`
	Timestamp time.Time       `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

// AggregateLegs builds a fill from its constituent legs.
// Quantity is the sum of the leg quantities and Price the quantity weighted leg price.
// When base.TradeQuantity is already set it is overwritten.
func AggregateLegs(base Fill, legs []TradeLeg) Fill {
	if len(legs) == 0 {
		return base
	}

	quantity := decimal.Zero
	notional := decimal.Zero

	for _, leg := range legs {
		quantity = quantity.Add(leg.Quantity)
		notional = notional.Add(leg.Quantity.Mul(leg.Price))
	}

	base.Legs = legs
	base.TradeQuantity = quantity

	if !quantity.IsZero() {
		base.Price = notional.Div(quantity)
	}

	return base
}
