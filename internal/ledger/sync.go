package ledger

import (
	"context"
	"slices"

	"github.com/rxtech-lab/argo-pnl/internal/feed"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"go.uber.org/zap"
)

// SyncReport summarizes one pull from a feed.
type SyncReport struct {
	Source  string
	Fetched int
	Results []IngestResult
	// Warnings holds the reconciliation mismatches, empty when no reporter was given.
	Warnings []types.ReconciliationWarning
}

// Failed returns the results whose ingestion failed.
func (r SyncReport) Failed() []IngestResult {
	var failed []IngestResult

	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}

	return failed
}

// Sync fetches every fill from source, ingests them per position and, when reporter
// is not nil, reconciles each reported position size against the computed one.
func (l *Ledger) Sync(ctx context.Context, source feed.Source, reporter feed.Reporter, onDone func(IngestResult)) (SyncReport, error) {
	report := SyncReport{Source: source.Name()}

	fills, err := source.Fetch(ctx)
	if err != nil {
		return report, err
	}

	report.Fetched = len(fills)
	report.Results = l.IngestAll(ctx, feed.GroupByKey(fills), onDone)

	l.logger.Info("Synced fills",
		zap.String("source", report.Source),
		zap.Int("fetched", report.Fetched),
		zap.Int("positions", len(report.Results)),
		zap.Int("failed", len(report.Failed())),
	)

	if reporter == nil {
		return report, nil
	}

	reported, err := reporter.ReportedQuantities(ctx)
	if err != nil {
		return report, err
	}

	keys := make([]types.PositionKey, 0, len(reported))
	for key := range reported {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, compareKeys)

	for _, key := range keys {
		warning, err := l.Reconcile(ctx, key, reported[key])
		if err != nil {
			return report, err
		}

		if warning.IsSome() {
			report.Warnings = append(report.Warnings, warning.Unwrap())
		}
	}

	return report, nil
}
