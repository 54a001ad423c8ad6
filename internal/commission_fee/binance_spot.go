package commission_fee

import "github.com/shopspring/decimal"

// binanceSpotRate is the default spot taker rate, 0.1% of notional.
var binanceSpotRate = decimal.RequireFromString("0.001")

// BinanceSpotCommissionFee charges a flat rate on the quote notional of the fill.
type BinanceSpotCommissionFee struct{}

func NewBinanceSpotCommissionFee() CommissionFee {
	return &BinanceSpotCommissionFee{}
}

func (c *BinanceSpotCommissionFee) Calculate(quantity decimal.Decimal, price decimal.Decimal) decimal.Decimal {
	return quantity.Abs().Mul(price.Abs()).Mul(binanceSpotRate)
}
