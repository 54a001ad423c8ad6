package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/accounting"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
	positions []types.Position
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) SetupTest() {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fill := func(id string, minute int, quantity int64, price int64) types.Fill {
		q := decimal.NewFromInt(quantity)
		p := decimal.NewFromInt(price)

		return types.Fill{
			ID:            id,
			Account:       "acc",
			Instrument:    "AAPL",
			Timestamp:     start.Add(time.Duration(minute) * time.Minute),
			SignedPayment: q.Mul(p).Neg(),
			Price:         p,
			TradeQuantity: q.Abs(),
			Commission:    decimal.NewFromInt(1),
		}
	}

	fills := []types.Fill{fill("f1", 0, 10, 100), fill("f2", 1, -10, 110)}
	state, results, err := accounting.FoldFillSeries(fills)
	suite.Require().NoError(err)

	suite.positions = []types.Position{{
		Key:              types.PositionKey{Account: "acc", Instrument: "AAPL"},
		State:            state,
		Fills:            fills,
		Results:          results,
		ReportedQuantity: optional.Some(decimal.NewFromInt(1)),
	}}
}

func (suite *ReportTestSuite) TestResultRows() {
	rows := ResultRows(suite.positions)
	suite.Require().Len(rows, 2)

	suite.Equal("f1", rows[0].FillID)
	suite.Equal("OPEN", rows[0].Transition)
	suite.Equal("10", rows[0].SignedQuantity)
	suite.Equal("100", rows[0].AveragePrice)
	suite.Equal("100.1", rows[0].AveragePriceCorrected)
	suite.Empty(rows[0].FixedPnL)
	suite.Equal("2024-03-01T10:00:00Z", rows[0].Timestamp)

	suite.Equal("CLOSE", rows[1].Transition)
	suite.Equal("0", rows[1].CurrentQuantity)
	suite.Empty(rows[1].AveragePrice)
	suite.Equal("98", rows[1].FixedPnL)
}

func (suite *ReportTestSuite) TestPositionRows() {
	rows := PositionRows(suite.positions)
	suite.Require().Len(rows, 1)

	suite.Equal("FLAT", rows[0].Side)
	suite.Equal("98", rows[0].TotalFixedPnL)
	suite.Equal(2, rows[0].Fills)
	suite.Equal("1", rows[0].ReportedQuantity)
	suite.Empty(rows[0].AveragePrice)
}

func (suite *ReportTestSuite) TestCSVWriter() {
	var buf bytes.Buffer

	writer, err := NewWriter(FormatCSV, &buf)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.WriteResults(suite.positions))

	suite.True(strings.HasPrefix(buf.String(), "account,instrument,sequence,fill_id"))

	var rows []ResultRow
	suite.Require().NoError(gocsv.UnmarshalBytes(buf.Bytes(), &rows))
	suite.Equal(ResultRows(suite.positions), rows)
}

func (suite *ReportTestSuite) TestJSONWriter() {
	var buf bytes.Buffer

	writer, err := NewWriter(FormatJSON, &buf)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.WritePositions(suite.positions))

	var rows []PositionRow
	suite.Require().NoError(json.Unmarshal(buf.Bytes(), &rows))
	suite.Equal(PositionRows(suite.positions), rows)
}

func (suite *ReportTestSuite) TestTableWriter() {
	var buf bytes.Buffer

	writer, err := NewWriter(FormatTable, &buf)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.WritePositions(suite.positions))

	out := buf.String()
	suite.Contains(out, "Total Fixed P&L")
	suite.Contains(out, "AAPL")
	suite.Contains(out, "98")
}

func (suite *ReportTestSuite) TestWarnings() {
	warnings := []types.ReconciliationWarning{{
		Key:      types.PositionKey{Account: "acc", Instrument: "AAPL"},
		Computed: decimal.Zero,
		Reported: decimal.NewFromInt(1),
		Diff:     decimal.NewFromInt(1),
	}}

	for _, format := range AllFormats {
		suite.Run(string(format), func() {
			var buf bytes.Buffer

			writer, err := NewWriter(format, &buf)
			suite.Require().NoError(err)

			suite.Require().NoError(writer.WriteWarnings(nil))
			suite.Empty(buf.String())

			suite.Require().NoError(writer.WriteWarnings(warnings))
			suite.Contains(buf.String(), "AAPL")
		})
	}
}

func (suite *ReportTestSuite) TestUnknownFormat() {
	_, err := NewWriter("xml", &bytes.Buffer{})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
