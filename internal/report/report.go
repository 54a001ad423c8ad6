// Package report renders folded positions for the command line.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

var AllFormats = []Format{FormatTable, FormatCSV, FormatJSON}

// Writer renders positions in one output format.
type Writer interface {
	// WriteResults writes one row per processed fill of every position.
	WriteResults(positions []types.Position) error
	// WritePositions writes one summary row per position.
	WritePositions(positions []types.Position) error
	// WriteWarnings writes reconciliation mismatches.
	WriteWarnings(warnings []types.ReconciliationWarning) error
}

func NewWriter(format Format, out io.Writer) (Writer, error) {
	switch format {
	case FormatTable, "":
		return &tableWriter{out: out}, nil
	case FormatCSV:
		return &csvWriter{out: out}, nil
	case FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return &jsonWriter{encoder: encoder}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown output format %q", format)
	}
}

// ResultRow is the flat form of one processed fill.
type ResultRow struct {
	Account               string `csv:"account" json:"account"`
	Instrument            string `csv:"instrument" json:"instrument"`
	Sequence              int    `csv:"sequence" json:"sequence"`
	FillID                string `csv:"fill_id" json:"fill_id"`
	Timestamp             string `csv:"timestamp" json:"timestamp"`
	Transition            string `csv:"transition" json:"transition"`
	SignedPayment         string `csv:"signed_payment" json:"signed_payment"`
	SignedQuantity        string `csv:"signed_quantity" json:"signed_quantity"`
	Price                 string `csv:"price" json:"price"`
	Commission            string `csv:"commission" json:"commission"`
	CurrentQuantity       string `csv:"current_quantity" json:"current_quantity"`
	AveragePrice          string `csv:"average_price" json:"average_price"`
	AveragePriceCorrected string `csv:"average_price_corrected" json:"average_price_corrected"`
	FixedPnL              string `csv:"fixed_pnl" json:"fixed_pnl"`
}

// PositionRow is the flat summary of one position.
type PositionRow struct {
	Account               string `csv:"account" json:"account"`
	Instrument            string `csv:"instrument" json:"instrument"`
	Side                  string `csv:"side" json:"side"`
	Quantity              string `csv:"quantity" json:"quantity"`
	AveragePrice          string `csv:"average_price" json:"average_price"`
	AveragePriceCorrected string `csv:"average_price_corrected" json:"average_price_corrected"`
	TotalFixedPnL         string `csv:"total_fixed_pnl" json:"total_fixed_pnl"`
	Fills                 int    `csv:"fills" json:"fills"`
	LastFill              string `csv:"last_fill" json:"last_fill"`
	ReportedQuantity      string `csv:"reported_quantity" json:"reported_quantity"`
}

// WarningRow is the flat form of a reconciliation mismatch.
type WarningRow struct {
	Account    string `csv:"account" json:"account"`
	Instrument string `csv:"instrument" json:"instrument"`
	Computed   string `csv:"computed" json:"computed"`
	Reported   string `csv:"reported" json:"reported"`
	Diff       string `csv:"diff" json:"diff"`
}

// ResultRows flattens the per-fill results of every position, in position then sequence order.
func ResultRows(positions []types.Position) []ResultRow {
	var rows []ResultRow

	for _, position := range positions {
		fills := make(map[string]types.Fill, len(position.Fills))
		for _, f := range position.Fills {
			fills[f.ID] = f
		}

		for _, result := range position.Results {
			f := fills[result.FillID]

			rows = append(rows, ResultRow{
				Account:               position.Key.Account,
				Instrument:            position.Key.Instrument,
				Sequence:              result.Sequence,
				FillID:                result.FillID,
				Timestamp:             formatTime(result.Timestamp),
				Transition:            string(result.Transition),
				SignedPayment:         f.SignedPayment.String(),
				SignedQuantity:        f.SignedQuantity().String(),
				Price:                 f.Price.String(),
				Commission:            f.Commission.String(),
				CurrentQuantity:       result.CurrentQuantity.String(),
				AveragePrice:          formatOption(result.AveragePrice),
				AveragePriceCorrected: formatOption(result.AveragePriceCorrected),
				FixedPnL:              formatOption(result.FixedPnL),
			})
		}
	}

	return rows
}

func PositionRows(positions []types.Position) []PositionRow {
	rows := make([]PositionRow, 0, len(positions))

	for _, position := range positions {
		state := position.State

		rows = append(rows, PositionRow{
			Account:               position.Key.Account,
			Instrument:            position.Key.Instrument,
			Side:                  string(state.Side()),
			Quantity:              state.CurrentQuantity.String(),
			AveragePrice:          formatOption(state.AveragePrice),
			AveragePriceCorrected: formatOption(state.AveragePriceCorrected),
			TotalFixedPnL:         state.TotalFixedPnL.String(),
			Fills:                 state.AppliedFills,
			LastFill:              formatTime(state.LastTimestamp),
			ReportedQuantity:      formatOption(position.ReportedQuantity),
		})
	}

	return rows
}

func WarningRows(warnings []types.ReconciliationWarning) []WarningRow {
	rows := make([]WarningRow, 0, len(warnings))

	for _, w := range warnings {
		rows = append(rows, WarningRow{
			Account:    w.Key.Account,
			Instrument: w.Key.Instrument,
			Computed:   w.Computed.String(),
			Reported:   w.Reported.String(),
			Diff:       w.Diff.String(),
		})
	}

	return rows
}

func formatOption(value optional.Option[decimal.Decimal]) string {
	if value.IsNone() {
		return ""
	}

	return value.Unwrap().String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}
