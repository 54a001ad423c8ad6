package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
)

// DataGenerator generates realistic fill series for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how fills are generated.
type GeneratorConfig struct {
	// Account and Instrument identify the position the fills belong to
	Account    string
	Instrument string
	// StartTime is the timestamp of the first fill
	StartTime time.Time
	// Interval is the duration between fills
	Interval time.Duration
	// Count is the number of fills to generate
	Count int
	// InitialPrice is the starting execution price
	InitialPrice float64
	// Volatility controls price movement between fills (0.01 = 1%)
	Volatility float64
	// MaxQuantity is the largest lot count of a single fill
	MaxQuantity int64
	// BuyProbability is the chance that a fill is a buy (1.0 generates extension-only long series)
	BuyProbability float64
	// CommissionRate is the commission as a fraction of notional, 0 disables commission
	CommissionRate float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Account:        "test-account",
		Instrument:     "TEST",
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          1000,
		InitialPrice:   100.0,
		Volatility:     0.01,
		MaxQuantity:    20,
		BuyProbability: 0.5,
		CommissionRate: 0.0005,
	}
}

// Generate creates a chronologically ordered fill series based on the configuration.
// Prices follow a geometric random walk and are rounded to cents.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Fill {
	fills := make([]types.Fill, config.Count)
	price := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Box-Muller transform for a normally distributed price step
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		price = math.Max(0.01, price*math.Exp(config.Volatility*z))
		priceDec := decimal.NewFromFloat(price).Round(2)

		maxQuantity := config.MaxQuantity
		if maxQuantity < 1 {
			maxQuantity = 1
		}

		quantity := decimal.NewFromInt(g.rng.Int63n(maxQuantity) + 1)
		notional := priceDec.Mul(quantity)

		direction := types.DirectionSell
		if g.rng.Float64() < config.BuyProbability {
			direction = types.DirectionBuy
		}

		commission := decimal.Zero
		if config.CommissionRate > 0 {
			commission = notional.Mul(decimal.NewFromFloat(config.CommissionRate)).Round(2)
		}

		fills[i] = types.Fill{
			ID:            fmt.Sprintf("%s-%06d", config.Instrument, i),
			Account:       config.Account,
			Instrument:    config.Instrument,
			Timestamp:     currentTime,
			SignedPayment: notional.Mul(direction.Decimal()).Neg(),
			Price:         priceDec,
			TradeQuantity: quantity,
			Commission:    commission,
			Legs:          nil,
		}

		currentTime = currentTime.Add(config.Interval)
	}

	return fills
}
