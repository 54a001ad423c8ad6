package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-pnl/internal/accounting"
	"github.com/rxtech-lab/argo-pnl/internal/commission_fee"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CSVSourceTestSuite struct {
	suite.Suite
	source *CSVSource
}

func TestCSVSourceSuite(t *testing.T) {
	suite.Run(t, new(CSVSourceTestSuite))
}

func (suite *CSVSourceTestSuite) SetupTest() {
	suite.source = NewCSVSource(CSVSourceConfig{DefaultAccount: "default"}, logger.NewNopLogger())
}

func (suite *CSVSourceTestSuite) read(content string) []types.Fill {
	fills, err := suite.source.ReadFills(strings.NewReader(content))
	suite.Require().NoError(err)

	return fills
}

func (suite *CSVSourceTestSuite) assertDecimal(expected string, actual decimal.Decimal) {
	suite.Truef(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (suite *CSVSourceTestSuite) TestSideDerivesPayment() {
	fills := suite.read(`id,account,instrument,timestamp,side,price,quantity,commission
f1,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,10,1
f2,acc,AAPL,2024-01-01T10:01:00Z,sell,110,15,0
`)

	suite.Require().Len(fills, 2)
	suite.assertDecimal("-1000", fills[0].SignedPayment)
	suite.Equal(types.DirectionBuy, fills[0].Direction())
	suite.assertDecimal("1650", fills[1].SignedPayment)
	suite.Equal(types.DirectionSell, fills[1].Direction())
	suite.assertDecimal("1", fills[0].Commission)
	suite.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), fills[0].Timestamp.UTC())
}

func (suite *CSVSourceTestSuite) TestSignedPaymentWinsOverSide() {
	fills := suite.read(`id,account,instrument,timestamp,side,signed_payment,price,quantity
f1,acc,AAPL,1704103200000,BUY,500,100,5
`)

	suite.Require().Len(fills, 1)
	suite.assertDecimal("500", fills[0].SignedPayment)
	suite.Equal(types.DirectionSell, fills[0].Direction())
	suite.Equal(time.UnixMilli(1704103200000).UTC(), fills[0].Timestamp)
}

func (suite *CSVSourceTestSuite) TestDefaultsAccountAndOrdersRows() {
	fills := suite.read(`id,instrument,timestamp,side,price,quantity
late,AAPL,2024-01-02T00:00:00Z,BUY,1,1
early,AAPL,2024-01-01T00:00:00Z,BUY,1,1
`)

	suite.Equal([]string{"early", "late"}, ids(fills))
	suite.Equal("default", fills[0].Account)
}

func (suite *CSVSourceTestSuite) TestAggregatesLegsByOrder() {
	fills := suite.read(`id,account,instrument,timestamp,side,price,quantity,commission,order_id
l1,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,4,0.4,o1
l2,acc,AAPL,2024-01-01T10:00:02Z,BUY,110,6,0.6,o1
x1,acc,AAPL,2024-01-01T10:00:01Z,SELL,120,1,0,
`)

	suite.Require().Len(fills, 2)
	suite.Equal("x1", fills[0].ID)

	order := fills[1]
	suite.Equal("o1", order.ID)
	suite.Len(order.Legs, 2)
	suite.assertDecimal("10", order.TradeQuantity)
	suite.assertDecimal("106", order.Price)
	suite.assertDecimal("-1060", order.SignedPayment)
	suite.assertDecimal("1", order.Commission)
	suite.Equal(time.Date(2024, 1, 1, 10, 0, 2, 0, time.UTC), order.Timestamp)
	suite.NoError(order.Validate())
}

func (suite *CSVSourceTestSuite) TestRejectsMixedSideOrder() {
	_, err := suite.source.ReadFills(strings.NewReader(`id,account,instrument,timestamp,side,price,quantity,order_id
l1,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,4,o1
l2,acc,AAPL,2024-01-01T10:00:02Z,SELL,110,6,o1
`))

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFeedParseFailed))
}

func (suite *CSVSourceTestSuite) TestAttachesFeeRows() {
	fills := suite.read(`id,kind,account,instrument,timestamp,side,price,quantity,commission,parent_id
f1,trade,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,10,,
c1,fee,acc,AAPL,2024-01-01T10:00:00Z,,,,-1.5,f1
c2,fee,acc,AAPL,,,,,0.5,f1
c3,fee,acc,AAPL,,,,,9,unknown
`)

	suite.Require().Len(fills, 1)
	suite.assertDecimal("2", fills[0].Commission)
}

func (suite *CSVSourceTestSuite) TestAttachesFeeRowsToOrderLegs() {
	fills := suite.read(`id,kind,account,instrument,timestamp,side,price,quantity,commission,order_id,parent_id
l1,trade,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,4,,o1,
l2,trade,acc,AAPL,2024-01-01T10:00:01Z,BUY,100,6,0.5,o1,
c1,fee,acc,AAPL,,,,,1.5,,l1
c2,fee,acc,AAPL,,,,,0.25,,o1
`)

	suite.Require().Len(fills, 1)
	suite.Equal("o1", fills[0].ID)
	suite.assertDecimal("2.25", fills[0].Commission)

	state, _, err := accounting.FoldFillSeries(fills)
	suite.Require().NoError(err)
	suite.assertDecimal("100.225", state.AveragePriceCorrected.Unwrap())
}

func (suite *CSVSourceTestSuite) TestGeneratesStableIDs() {
	content := `account,instrument,timestamp,side,price,quantity
acc,AAPL,2024-01-01T10:00:00Z,BUY,100,10
acc,AAPL,2024-01-01T10:01:00Z,BUY,100,10
`

	first := suite.read(content)
	second := suite.read(content)

	suite.Require().Len(first, 2)
	suite.NotEmpty(first[0].ID)
	suite.NotEqual(first[0].ID, first[1].ID)
	suite.Equal(ids(first), ids(second))
}

func (suite *CSVSourceTestSuite) TestBrokerFillsMissingCommission() {
	source := NewCSVSource(CSVSourceConfig{Broker: commission_fee.BrokerInteractiveBroker}, logger.NewNopLogger())

	fills, err := source.ReadFills(strings.NewReader(`id,account,instrument,timestamp,side,price,quantity,commission
f1,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,1000,
f2,acc,AAPL,2024-01-01T10:01:00Z,SELL,100,1000,0
`))
	suite.Require().NoError(err)
	suite.Require().Len(fills, 2)

	suite.assertDecimal("5", fills[0].Commission)
	suite.assertDecimal("0", fills[1].Commission)
}

func (suite *CSVSourceTestSuite) TestParseErrors() {
	tests := []struct {
		name    string
		content string
	}{
		{"bad timestamp", "id,instrument,timestamp,side,price,quantity\nf1,A,yesterday,BUY,1,1\n"},
		{"bad quantity", "id,instrument,timestamp,side,price,quantity\nf1,A,2024-01-01T00:00:00Z,BUY,1,lots\n"},
		{"bad price", "id,instrument,timestamp,side,price,quantity\nf1,A,2024-01-01T00:00:00Z,BUY,cheap,1\n"},
		{"unknown side", "id,instrument,timestamp,side,price,quantity\nf1,A,2024-01-01T00:00:00Z,HOLD,1,1\n"},
		{"unknown kind", "id,kind,instrument,timestamp,side,price,quantity\nf1,dividend,A,2024-01-01T00:00:00Z,BUY,1,1\n"},
		{"fee without parent", "id,kind,commission,parent_id\nc1,fee,1,\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := suite.source.ReadFills(strings.NewReader(tc.content))
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeFeedParseFailed), "got %v", err)
		})
	}
}

func (suite *CSVSourceTestSuite) TestFetchFromFile() {
	path := filepath.Join(suite.T().TempDir(), "fills.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(`id,account,instrument,timestamp,side,price,quantity,commission
f1,acc,AAPL,2024-01-01T10:00:00Z,BUY,100,10,0
f2,acc,AAPL,2024-01-01T10:01:00Z,SELL,110,15,0
`), 0o600))

	source := NewCSVSource(CSVSourceConfig{Path: path}, logger.NewNopLogger())
	suite.Equal("csv:"+path, source.Name())

	fills, err := source.Fetch(context.Background())
	suite.Require().NoError(err)

	state, _, err := accounting.FoldFillSeries(fills)
	suite.Require().NoError(err)
	suite.assertDecimal("100", state.TotalFixedPnL)
	suite.assertDecimal("-5", state.CurrentQuantity)
}

func (suite *CSVSourceTestSuite) TestFetchMissingFile() {
	source := NewCSVSource(CSVSourceConfig{Path: filepath.Join(suite.T().TempDir(), "missing.csv")}, logger.NewNopLogger())

	_, err := source.Fetch(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeFeedFetchFailed))
}
