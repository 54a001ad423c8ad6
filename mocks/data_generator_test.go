package mocks

import (
	"testing"

	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	fills := gen.Generate(config)
	require.Len(t, fills, 100)

	for i, f := range fills {
		assert.Equal(t, config.Instrument, f.Instrument)
		assert.Equal(t, config.Account, f.Account)
		assert.True(t, f.TradeQuantity.IsPositive(), "quantity at %d", i)
		assert.False(t, f.SignedPayment.IsZero(), "payment at %d", i)
		assert.True(t, f.Price.IsPositive(), "price at %d", i)
		assert.False(t, f.Commission.IsNegative(), "commission at %d", i)
		assert.NoError(t, f.Validate())

		if i > 0 {
			assert.True(t, f.Timestamp.After(fills[i-1].Timestamp), "chronological order at %d", i)
		}
	}
}

func TestDataGenerator_Reproducible(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50

	a := NewDataGenerator(7).Generate(config)
	b := NewDataGenerator(7).Generate(config)

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.True(t, a[i].SignedPayment.Equal(b[i].SignedPayment))
		assert.True(t, a[i].TradeQuantity.Equal(b[i].TradeQuantity))
	}
}

func TestDataGenerator_BuyOnly(t *testing.T) {
	config := DefaultConfig()
	config.Count = 200
	config.BuyProbability = 1.0

	for _, f := range NewDataGenerator(1).Generate(config) {
		assert.Equal(t, types.DirectionBuy, f.Direction())
	}
}

func TestDataGenerator_NoCommission(t *testing.T) {
	config := DefaultConfig()
	config.Count = 20
	config.CommissionRate = 0

	for _, f := range NewDataGenerator(3).Generate(config) {
		assert.True(t, f.Commission.IsZero())
	}
}
