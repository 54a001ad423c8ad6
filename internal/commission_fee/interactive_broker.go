package commission_fee

import "github.com/shopspring/decimal"

var (
	interactiveBrokerPerShare   = decimal.RequireFromString("0.005")
	interactiveBrokerMinimumFee = decimal.NewFromInt(1)
)

type InteractiveBrokerCommissionFee struct {
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity decimal.Decimal, price decimal.Decimal) decimal.Decimal {
	fee := interactiveBrokerPerShare.Mul(quantity.Abs())
	if fee.LessThan(interactiveBrokerMinimumFee) {
		return interactiveBrokerMinimumFee
	}

	return fee
}
