package commission_fee

import "github.com/shopspring/decimal"

type CommissionFee interface {
	// Calculate the commission fee for a fill of quantity lots executed at price
	Calculate(quantity decimal.Decimal, price decimal.Decimal) decimal.Decimal
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerBinanceSpot       Broker = "binance_spot"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerBinanceSpot,
	BrokerZero,
}

func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerBinanceSpot:
		return NewBinanceSpotCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
