package main

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/accounting"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPositions(t *testing.T) []types.Position {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	fill := func(id string, instrument string, minute int, quantity int64, price int64) types.Fill {
		q := decimal.NewFromInt(quantity)
		p := decimal.NewFromInt(price)

		return types.Fill{
			ID:            id,
			Account:       "acc",
			Instrument:    instrument,
			Timestamp:     start.Add(time.Duration(minute) * time.Minute),
			SignedPayment: q.Mul(p).Neg(),
			Price:         p,
			TradeQuantity: q.Abs(),
		}
	}

	series := [][]types.Fill{
		{fill("f1", "AAPL", 0, 10, 100), fill("f2", "AAPL", 1, -15, 110)},
		{fill("m1", "MSFT", 0, 2, 400)},
	}

	positions := make([]types.Position, 0, len(series))

	for _, fills := range series {
		state, results, err := accounting.FoldFillSeries(fills)
		require.NoError(t, err)

		positions = append(positions, types.Position{
			Key:     fills[0].Key(),
			State:   state,
			Fills:   fills,
			Results: results,
		})
	}

	return positions
}

func staticLoader(positions []types.Position) PositionLoader {
	return func() ([]types.Position, error) { return positions, nil }
}

func TestNewModel(t *testing.T) {
	m := NewModel(staticLoader(nil))

	assert.Equal(t, StateLoading, m.state)
	assert.Empty(t, m.positions)
	assert.Contains(t, m.View(), "Folding positions")
}

func TestModelLoadsPositions(t *testing.T) {
	positions := testPositions(t)
	m := NewModel(staticLoader(positions))

	msg := m.Init()()
	loaded, ok := msg.(PositionsLoadedMsg)
	require.True(t, ok)
	assert.Len(t, loaded.Positions, 2)

	updated, _ := m.Update(loaded)
	model := updated.(Model)
	assert.Equal(t, StatePositionSelect, model.state)
	assert.Len(t, model.positionList.Items(), 2)
}

func TestModelLoadError(t *testing.T) {
	m := NewModel(func() ([]types.Position, error) { return nil, fmt.Errorf("store locked") })

	updated, _ := m.Update(m.Init()())
	model := updated.(Model)

	assert.Equal(t, StatePositionSelect, model.state)
	assert.Contains(t, model.View(), "store locked")
}

func TestModelWithoutPositions(t *testing.T) {
	m := NewModel(staticLoader(nil))

	updated, _ := m.Update(PositionsLoadedMsg{})
	assert.Contains(t, updated.View(), "No positions found")
}

func TestPositionItem(t *testing.T) {
	positions := testPositions(t)

	item := positionItem{position: positions[0]}
	assert.Equal(t, "acc/AAPL", item.FilterValue())
	assert.Contains(t, item.Description(), "SHORT -5 @ 110")
	assert.Contains(t, item.Description(), "fixed P&L 100")

	positions[1].ReportedQuantity = optional.Some(decimal.NewFromInt(2))
	assert.Contains(t, positionItem{position: positions[1]}.Description(), "LONG 2 @ 400")
}

func TestFormatPnL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"0", "0"},
		{"12.5", "12.5 ▲"},
		{"-3", "-3 ▼"},
		{"n/a", "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPnL(tt.input))
		})
	}
}

func TestUpdateResultRows(t *testing.T) {
	positions := testPositions(t)

	table := UpdateResultRows(NewResultTable(), positions[0])
	rows := table.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, "f1", rows[0][1])
	assert.Equal(t, "OPEN", rows[0][3])
	assert.Equal(t, "", rows[0][8])
	assert.Equal(t, "REVERSE", rows[1][3])
	assert.Equal(t, "-15", rows[1][4])
	assert.Equal(t, "100 ▲", rows[1][8])
}

func TestBrowsePositionResults(t *testing.T) {
	m := NewModel(staticLoader(testPositions(t)))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(140, 30))

	// Wait for the position list to render
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("acc/AAPL"))
	}, teatest.WithDuration(2*time.Second))

	// Select the first position
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("REVERSE")) && bytes.Contains(bts, []byte("Total fixed P&L"))
	}, teatest.WithDuration(2*time.Second))

	// Esc goes back to the list
	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Select Position"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestQuitKey(t *testing.T) {
	m := NewModel(staticLoader(testPositions(t)))

	updated, _ := m.Update(PositionsLoadedMsg{Positions: testPositions(t)})
	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
