package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type tableWriter struct {
	out io.Writer
}

func (w *tableWriter) render(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	_, err := fmt.Fprintln(w.out, t.Render())

	return err
}

func (w *tableWriter) WriteResults(positions []types.Position) error {
	rows := make([][]string, 0)

	for _, r := range ResultRows(positions) {
		rows = append(rows, []string{
			r.Account, r.Instrument, fmt.Sprint(r.Sequence), r.FillID, r.Timestamp, r.Transition,
			r.SignedQuantity, r.Price, r.Commission, r.CurrentQuantity,
			r.AveragePrice, r.AveragePriceCorrected, r.FixedPnL,
		})
	}

	return w.render([]string{
		"Account", "Instrument", "#", "Fill", "Time", "Transition",
		"Qty", "Price", "Commission", "Position", "Avg Price", "Avg Corrected", "Fixed P&L",
	}, rows)
}

func (w *tableWriter) WritePositions(positions []types.Position) error {
	rows := make([][]string, 0, len(positions))

	for _, r := range PositionRows(positions) {
		rows = append(rows, []string{
			r.Account, r.Instrument, r.Side, r.Quantity, r.AveragePrice, r.AveragePriceCorrected,
			r.TotalFixedPnL, fmt.Sprint(r.Fills), r.LastFill, r.ReportedQuantity,
		})
	}

	return w.render([]string{
		"Account", "Instrument", "Side", "Quantity", "Avg Price", "Avg Corrected",
		"Total Fixed P&L", "Fills", "Last Fill", "Reported",
	}, rows)
}

func (w *tableWriter) WriteWarnings(warnings []types.ReconciliationWarning) error {
	if len(warnings) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(warnings))
	for _, r := range WarningRows(warnings) {
		rows = append(rows, []string{r.Account, r.Instrument, r.Computed, r.Reported, r.Diff})
	}

	return w.render([]string{"Account", "Instrument", "Computed", "Reported", "Diff"}, rows)
}

type csvWriter struct {
	out io.Writer
}

func (w *csvWriter) marshal(rows any) error {
	if err := gocsv.Marshal(rows, w.out); err != nil {
		return errors.Wrap(errors.ErrCodeOutputFailed, "failed to write csv", err)
	}

	return nil
}

func (w *csvWriter) WriteResults(positions []types.Position) error {
	return w.marshal(ResultRows(positions))
}

func (w *csvWriter) WritePositions(positions []types.Position) error {
	return w.marshal(PositionRows(positions))
}

func (w *csvWriter) WriteWarnings(warnings []types.ReconciliationWarning) error {
	if len(warnings) == 0 {
		return nil
	}

	return w.marshal(WarningRows(warnings))
}

type jsonWriter struct {
	encoder *json.Encoder
}

func (w *jsonWriter) WriteResults(positions []types.Position) error {
	return w.encoder.Encode(ResultRows(positions))
}

func (w *jsonWriter) WritePositions(positions []types.Position) error {
	return w.encoder.Encode(PositionRows(positions))
}

func (w *jsonWriter) WriteWarnings(warnings []types.ReconciliationWarning) error {
	if len(warnings) == 0 {
		return nil
	}

	return w.encoder.Encode(WarningRows(warnings))
}
