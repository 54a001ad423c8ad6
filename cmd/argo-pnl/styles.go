package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)
)

// FormatPnL renders a realized P&L with an indicator of its sign. Empty stays empty.
func FormatPnL(pnl string) string {
	if pnl == "" {
		return ""
	}

	value, err := decimal.NewFromString(pnl)
	if err != nil {
		return pnl
	}

	switch value.Sign() {
	case 1:
		return pnl + " ▲"
	case -1:
		return pnl + " ▼"
	default:
		return pnl
	}
}
