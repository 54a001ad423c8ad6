package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-pnl/internal/report"
	"github.com/rxtech-lab/argo-pnl/internal/types"
)

// positionItem implements list.Item for the position list.
type positionItem struct {
	position types.Position
}

func (i positionItem) Title() string {
	return i.position.Key.String()
}

func (i positionItem) Description() string {
	state := i.position.State
	description := fmt.Sprintf("%s %s", state.Side(), state.CurrentQuantity)

	if state.AveragePrice.IsSome() {
		description += fmt.Sprintf(" @ %s", state.AveragePrice.Unwrap())
	}

	return description + fmt.Sprintf(" | fixed P&L %s | %d fills", state.TotalFixedPnL, state.AppliedFills)
}

func (i positionItem) FilterValue() string { return i.position.Key.String() }

// NewPositionList creates the list of positions to pick from.
func NewPositionList(positions []types.Position) list.Model {
	items := make([]list.Item, 0, len(positions))
	for _, position := range positions {
		items = append(items, positionItem{position: position})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Position"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return l
}

// NewResultTable creates the table of per-fill results.
func NewResultTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Fill", Width: 16},
		{Title: "Time", Width: 20},
		{Title: "Transition", Width: 10},
		{Title: "Qty", Width: 10},
		{Title: "Price", Width: 12},
		{Title: "Position", Width: 10},
		{Title: "Avg Price", Width: 14},
		{Title: "Fixed P&L", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateResultRows fills the table with the results of one position.
func UpdateResultRows(t table.Model, position types.Position) table.Model {
	results := report.ResultRows([]types.Position{position})
	rows := make([]table.Row, 0, len(results))

	for i, r := range results {
		timestamp := position.Results[i].Timestamp.Format("2006-01-02 15:04:05")

		rows = append(rows, table.Row{
			fmt.Sprint(r.Sequence),
			r.FillID,
			timestamp,
			r.Transition,
			r.SignedQuantity,
			r.Price,
			r.CurrentQuantity,
			r.AveragePrice,
			FormatPnL(r.FixedPnL),
		})
	}

	t.SetRows(rows)
	t.SetCursor(0)

	return t
}
