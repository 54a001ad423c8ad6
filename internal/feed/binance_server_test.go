package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-pnl/internal/accounting"
	"github.com/rxtech-lab/argo-pnl/internal/feed/binancetest"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// BinanceServerTestSuite drives the real go-binance client against a fake REST server.
type BinanceServerTestSuite struct {
	suite.Suite
	server *binancetest.Server
	source *BinanceSource
	start  time.Time
}

func TestBinanceServerSuite(t *testing.T) {
	suite.Run(t, new(BinanceServerTestSuite))
}

func (suite *BinanceServerTestSuite) SetupTest() {
	suite.start = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	suite.server = binancetest.NewServer()
	suite.Require().NoError(suite.server.Start())

	source, err := NewBinanceSource("main", BinanceSourceConfig{
		ApiKey:    "test-key",
		SecretKey: "test-secret",
		BaseURL:   suite.server.BaseURL(),
		Symbols:   []BinanceSymbol{{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"}},
	}, logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.source = source
}

func (suite *BinanceServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *BinanceServerTestSuite) trade(id, orderID int64, minute int, isBuyer bool, qty, price, commission string) binancetest.Trade {
	return binancetest.Trade{
		ID:              id,
		OrderID:         orderID,
		Symbol:          "BTCUSDT",
		Price:           price,
		Quantity:        qty,
		QuoteQuantity:   decimal.RequireFromString(qty).Mul(decimal.RequireFromString(price)).String(),
		Commission:      commission,
		CommissionAsset: "USDT",
		Time:            suite.start.Add(time.Duration(minute) * time.Minute),
		IsBuyer:         isBuyer,
	}
}

func (suite *BinanceServerTestSuite) TestFetchAndFold() {
	suite.server.AddTrades(
		suite.trade(1, 10, 0, true, "0.5", "60000", "30"),
		suite.trade(2, 10, 0, true, "0.5", "60000", "30"),
		suite.trade(3, 11, 5, false, "1.5", "62000", "93"),
	)
	suite.server.SetBalance("BTC", "0", "0")

	fills, err := suite.source.Fetch(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(fills, 2)
	suite.Equal("binance-10", fills[0].ID)
	suite.Len(fills[0].Legs, 2)

	state, results, err := accounting.FoldFillSeries(fills)
	suite.Require().NoError(err)
	suite.Len(results, 2)
	suite.Equal(types.TransitionReverse, results[1].Transition)
	suite.True(decimal.RequireFromString("-0.5").Equal(state.CurrentQuantity))

	// gross 2000 less the 60 buy commission and the closing two thirds of the 93 sell commission
	suite.True(decimal.RequireFromString("1878").Equal(state.TotalFixedPnL), "got %s", state.TotalFixedPnL)
}

func (suite *BinanceServerTestSuite) TestFetchPaginates() {
	for i := 0; i < binanceTradePageLimit+1; i++ {
		suite.server.AddTrades(suite.trade(int64(i+1), int64(i+1), i, true, "0.001", "60000", "0"))
	}

	fills, err := suite.source.Fetch(context.Background())
	suite.Require().NoError(err)
	suite.Len(fills, binanceTradePageLimit+1)
	suite.Equal(2, suite.server.TradeRequests())
}

func (suite *BinanceServerTestSuite) TestFetchAPIError() {
	suite.server.FailTrades(true)

	_, err := suite.source.Fetch(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeFeedFetchFailed))
}

func (suite *BinanceServerTestSuite) TestReportedQuantities() {
	suite.server.SetBalance("BTC", "1.25", "0.25")
	suite.server.SetBalance("USDT", "100", "0")

	reported, err := suite.source.ReportedQuantities(context.Background())
	suite.Require().NoError(err)
	suite.True(decimal.RequireFromString("1.5").Equal(reported[types.PositionKey{Account: "main", Instrument: "BTCUSDT"}]))
}
