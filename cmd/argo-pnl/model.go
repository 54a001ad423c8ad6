package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-pnl/internal/types"
)

// Application states.
const (
	StateLoading = iota
	StatePositionSelect
	StateResultDisplay
)

// PositionLoader reads the positions the viewer browses.
type PositionLoader func() ([]types.Position, error)

// Model is the main Bubble Tea model of the result viewer.
type Model struct {
	state        int
	load         PositionLoader
	positionList list.Model
	resultTable  table.Model
	positions    []types.Position
	selected     types.Position
	err          error
	width        int
	height       int
}

// NewModel creates a Model that reads its positions with load on start.
func NewModel(load PositionLoader) Model {
	return Model{
		state:        StateLoading,
		load:         load,
		positionList: NewPositionList(nil),
		resultTable:  NewResultTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	load := m.load

	return func() tea.Msg {
		positions, err := load()
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return PositionsLoadedMsg{Positions: positions}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// q is typed into the filter while filtering
			if m.positionList.FilterState() != list.Filtering {
				return m, tea.Quit
			}
		case "esc":
			if m.state == StateResultDisplay {
				m.state = StatePositionSelect
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.positionList.SetSize(msg.Width, msg.Height-4)
		m.resultTable.SetWidth(msg.Width)
		m.resultTable.SetHeight(msg.Height - 8)
		return m, nil

	case PositionsLoadedMsg:
		m.positions = msg.Positions
		m.positionList = NewPositionList(msg.Positions)
		m.positionList.SetSize(m.width, m.height-4)
		m.state = StatePositionSelect
		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err
		m.state = StatePositionSelect
		return m, nil
	}

	switch m.state {
	case StatePositionSelect:
		return m.updatePositionSelect(msg)
	case StateResultDisplay:
		return m.updateResultDisplay(msg)
	}

	return m, nil
}

func (m Model) updatePositionSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && m.positionList.FilterState() != list.Filtering {
		if item, ok := m.positionList.SelectedItem().(positionItem); ok {
			m.selected = item.position
			m.resultTable = UpdateResultRows(m.resultTable, item.position)
			m.state = StateResultDisplay
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.positionList, cmd = m.positionList.Update(msg)
	return m, cmd
}

func (m Model) updateResultDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.resultTable, cmd = m.resultTable.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateLoading:
		s.WriteString(TitleStyle.Render("Argo P&L"))
		s.WriteString("\n\nFolding positions...\n")

	case StatePositionSelect:
		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		if len(m.positions) == 0 && m.err == nil {
			s.WriteString(TitleStyle.Render("Argo P&L"))
			s.WriteString("\n\nNo positions found.\n")
		} else {
			s.WriteString(m.positionList.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to show fills, / to filter, q to quit"))

	case StateResultDisplay:
		state := m.selected.State
		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s  %s %s", m.selected.Key, state.Side(), state.CurrentQuantity)))
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("Total fixed P&L: %s", FormatPnL(state.TotalFixedPnL.String())))

		if m.selected.ReportedQuantity.IsSome() {
			s.WriteString(fmt.Sprintf(" | Reported size: %s", m.selected.ReportedQuantity.Unwrap()))
		}

		s.WriteString("\n\n")
		s.WriteString(m.resultTable.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("↑/↓: scroll | Esc: back | q: quit"))
	}

	return s.String()
}
