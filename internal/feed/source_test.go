package feed

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SourceTestSuite struct {
	suite.Suite
	start time.Time
}

func TestSourceSuite(t *testing.T) {
	suite.Run(t, new(SourceTestSuite))
}

func (suite *SourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *SourceTestSuite) fill(id string, minute int, instrument string) types.Fill {
	return types.Fill{
		ID:            id,
		Account:       "acc",
		Instrument:    instrument,
		Timestamp:     suite.start.Add(time.Duration(minute) * time.Minute),
		SignedPayment: decimal.NewFromInt(-100),
		Price:         decimal.NewFromInt(100),
		TradeQuantity: decimal.NewFromInt(1),
		Commission:    decimal.Zero,
	}
}

func ids(fills []types.Fill) []string {
	out := make([]string, len(fills))
	for i, f := range fills {
		out[i] = f.ID
	}

	return out
}

func (suite *SourceTestSuite) TestSortAndDedup() {
	tests := []struct {
		name     string
		fills    []types.Fill
		expected []string
	}{
		{
			name:     "empty",
			fills:    nil,
			expected: []string{},
		},
		{
			name:     "already sorted",
			fills:    []types.Fill{suite.fill("a", 0, "X"), suite.fill("b", 1, "X")},
			expected: []string{"a", "b"},
		},
		{
			name:     "out of order",
			fills:    []types.Fill{suite.fill("c", 2, "X"), suite.fill("a", 0, "X"), suite.fill("b", 1, "X")},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "equal timestamps keep arrival order",
			fills:    []types.Fill{suite.fill("z", 1, "X"), suite.fill("y", 1, "X"), suite.fill("x", 0, "X")},
			expected: []string{"x", "z", "y"},
		},
		{
			name:     "first duplicate wins",
			fills:    []types.Fill{suite.fill("a", 5, "X"), suite.fill("b", 1, "X"), suite.fill("a", 0, "X")},
			expected: []string{"b", "a"},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, ids(SortAndDedup(tc.fills)))
		})
	}
}

func (suite *SourceTestSuite) TestSortAndDedupKeepsFirstContent() {
	first := suite.fill("a", 5, "X")
	second := suite.fill("a", 0, "X")
	second.TradeQuantity = decimal.NewFromInt(7)

	result := SortAndDedup([]types.Fill{first, second})
	suite.Require().Len(result, 1)
	suite.True(result[0].TradeQuantity.Equal(decimal.NewFromInt(1)))
	suite.Equal(first.Timestamp, result[0].Timestamp)
}

func (suite *SourceTestSuite) TestGroupByKey() {
	groups := GroupByKey([]types.Fill{
		suite.fill("a", 0, "X"),
		suite.fill("b", 1, "Y"),
		suite.fill("c", 2, "X"),
	})

	suite.Len(groups, 2)
	suite.Equal([]string{"a", "c"}, ids(groups[types.PositionKey{Account: "acc", Instrument: "X"}]))
	suite.Equal([]string{"b"}, ids(groups[types.PositionKey{Account: "acc", Instrument: "Y"}]))
}

func (suite *SourceTestSuite) TestAttachCommissions() {
	a := suite.fill("a", 0, "X")
	a.Commission = decimal.RequireFromString("-0.5")
	b := suite.fill("b", 1, "X")

	fills, unmatched := AttachCommissions([]types.Fill{a, b}, []types.CommissionRecord{
		{ID: "fee-1", ParentID: "a", Amount: decimal.RequireFromString("-1.25")},
		{ID: "fee-2", ParentID: "a", Amount: decimal.RequireFromString("0.25")},
		{ID: "fee-3", ParentID: "missing", Amount: decimal.RequireFromString("3")},
	})

	suite.Require().Len(fills, 2)
	suite.True(decimal.RequireFromString("2").Equal(fills[0].Commission), "got %s", fills[0].Commission)
	suite.True(fills[1].Commission.IsZero())

	suite.Require().Len(unmatched, 1)
	suite.Equal("fee-3", unmatched[0].ID)

	// inputs are not mutated
	suite.True(decimal.RequireFromString("-0.5").Equal(a.Commission))
}

func (suite *SourceTestSuite) TestAttachCommissionsMatchesLegIDs() {
	order := suite.fill("o1", 0, "X")
	order.Legs = []types.TradeLeg{
		{ID: "l1", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100)},
		{ID: "l2", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100)},
	}
	other := suite.fill("l2", 1, "X")

	fills, unmatched := AttachCommissions([]types.Fill{order, other}, []types.CommissionRecord{
		{ID: "fee-1", ParentID: "l1", Amount: decimal.RequireFromString("1.5")},
		{ID: "fee-2", ParentID: "l2", Amount: decimal.RequireFromString("2")},
	})

	suite.Empty(unmatched)
	suite.True(decimal.RequireFromString("1.5").Equal(fills[0].Commission), "got %s", fills[0].Commission)
	// a fill id wins over a leg id of another fill
	suite.True(decimal.RequireFromString("2").Equal(fills[1].Commission), "got %s", fills[1].Commission)
}

func (suite *SourceTestSuite) TestAttachCommissionsWithoutRecords() {
	fills, unmatched := AttachCommissions([]types.Fill{suite.fill("a", 0, "X")}, nil)
	suite.Len(fills, 1)
	suite.Empty(unmatched)
}
