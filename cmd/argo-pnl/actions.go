package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-pnl/internal/commission_fee"
	"github.com/rxtech-lab/argo-pnl/internal/config"
	"github.com/rxtech-lab/argo-pnl/internal/feed"
	"github.com/rxtech-lab/argo-pnl/internal/ledger"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/report"
	"github.com/rxtech-lab/argo-pnl/internal/store"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func newLogger(cmd *cli.Command, fallback string) (*logger.Logger, error) {
	level := cmd.String("log-level")
	if level == "" {
		level = fallback
	}

	return logger.NewLoggerWithLevel(level)
}

// openStore opens the DuckDB file at path, or a memory store when path is empty.
func openStore(path string, log *logger.Logger) (store.FillStore, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}

	return store.NewDuckDBStore(path, log)
}

func newWriter(cmd *cli.Command) (report.Writer, func() error, error) {
	out := cmd.Root().Writer
	closeOut := func() error { return nil }

	if path := cmd.String("output"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, errors.Wrapf(errors.ErrCodeOutputFailed, err, "failed to create %s", filepath.Dir(path))
		}

		file, err := os.Create(path)
		if err != nil {
			return nil, nil, errors.Wrapf(errors.ErrCodeOutputFailed, err, "failed to create %s", path)
		}

		out = file
		closeOut = file.Close
	}

	writer, err := report.NewWriter(report.Format(cmd.String("format")), out)
	if err != nil {
		_ = closeOut()

		return nil, nil, err
	}

	return writer, closeOut, nil
}

// newProgressBar draws a spinner on the error writer, one tick per folded position.
func newProgressBar(cmd *cli.Command, description string) *progressbar.ProgressBar {
	var out io.Writer = os.Stderr
	if cmd.Root().ErrWriter != nil {
		out = cmd.Root().ErrWriter
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// syncWithProgress runs one sync, ticking a progress bar per position.
func syncWithProgress(ctx context.Context, cmd *cli.Command, l *ledger.Ledger, source feed.Source, reporter feed.Reporter) (ledger.SyncReport, error) {
	bar := newProgressBar(cmd, "Folding "+source.Name())

	syncReport, err := l.Sync(ctx, source, reporter, func(ledger.IngestResult) {
		_ = bar.Add(1)
	})

	_ = bar.Finish()

	return syncReport, err
}

// failedPositions turns the failed results of a sync into one error, nil when all succeeded.
func failedPositions(log *logger.Logger, syncReport ledger.SyncReport) error {
	failed := syncReport.Failed()
	if len(failed) == 0 {
		return nil
	}

	for _, result := range failed {
		log.Error("Failed to fold position",
			zap.String("account", result.Key.Account),
			zap.String("instrument", result.Key.Instrument),
			zap.String("fill", errors.GetFillID(result.Err)),
			zap.Error(result.Err),
		)
	}

	first := failed[0]

	return errors.Wrapf(errors.GetCode(first.Err), first.Err,
		"%d of %d positions failed, first %s", len(failed), len(syncReport.Results), first.Key)
}

func foldAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd, "info")
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	fillStore, err := openStore(cmd.String("store"), log)
	if err != nil {
		return err
	}

	defer func() { _ = fillStore.Close() }()

	l := ledger.NewLedger(fillStore, log, ledger.Config{})
	if err := l.Load(ctx); err != nil {
		return err
	}

	source := feed.NewCSVSource(feed.CSVSourceConfig{
		Path:           cmd.String("input"),
		DefaultAccount: cmd.String("account"),
		Broker:         commission_fee.Broker(cmd.String("broker")),
	}, log)

	syncReport, err := syncWithProgress(ctx, cmd, l, source, nil)
	if err != nil {
		return err
	}

	writer, closeOut, err := newWriter(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = closeOut() }()

	positions := l.Positions()
	if cmd.Bool("summary") {
		err = writer.WritePositions(positions)
	} else {
		err = writer.WriteResults(positions)
	}

	if err != nil {
		return err
	}

	return failedPositions(log, syncReport)
}

// buildSource creates the feed named by the config. The reporter is nil unless
// reconciliation is enabled and the feed can report sizes.
func buildSource(cfg *config.Config, log *logger.Logger) (feed.Source, feed.Reporter, error) {
	switch cfg.Feed.Kind {
	case config.FeedKindCSV:
		if cfg.Reconcile.Enabled {
			log.Warn("CSV feeds report no position sizes, reconciliation skipped")
		}

		return feed.NewCSVSource(feed.CSVSourceConfig{
			Path:           cfg.Feed.CSV.Path,
			DefaultAccount: cfg.Feed.Account,
			Broker:         cfg.Feed.Broker,
		}, log), nil, nil

	case config.FeedKindBinance:
		source, err := feed.NewBinanceSource(cfg.Feed.Account, *cfg.Feed.Binance, log)
		if err != nil {
			return nil, nil, err
		}

		if !cfg.Reconcile.Enabled {
			return source, nil, nil
		}

		return source, source, nil

	default:
		return nil, nil, errors.Newf(errors.ErrCodeInvalidProvider, "unknown feed kind %q", cfg.Feed.Kind)
	}
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := newLogger(cmd, cfg.Log.Level)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	fillStore, err := store.NewDuckDBStore(cfg.Store.Path, log)
	if err != nil {
		return err
	}

	defer func() { _ = fillStore.Close() }()

	source, reporter, err := buildSource(cfg, log)
	if err != nil {
		return err
	}

	l := ledger.NewLedger(fillStore, log, ledger.Config{Tolerance: cfg.Reconcile.Tolerance})
	if err := l.Load(ctx); err != nil {
		return err
	}

	syncReport, err := syncWithProgress(ctx, cmd, l, source, reporter)
	if err != nil {
		return err
	}

	if cfg.Store.ParquetDir != "" {
		if err := fillStore.ExportParquet(ctx, cfg.Store.ParquetDir); err != nil {
			return err
		}

		log.Info("Exported store", zap.String("dir", cfg.Store.ParquetDir))
	}

	writer, closeOut, err := newWriter(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = closeOut() }()

	if err := writer.WritePositions(l.Positions()); err != nil {
		return err
	}

	if err := writer.WriteWarnings(syncReport.Warnings); err != nil {
		return err
	}

	return failedPositions(log, syncReport)
}

// loadPositions reads every position of the DuckDB file at path.
func loadPositions(ctx context.Context, path string, log *logger.Logger) ([]types.Position, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "store %s not found", path)
	}

	fillStore, err := store.NewDuckDBStore(path, log)
	if err != nil {
		return nil, err
	}

	defer func() { _ = fillStore.Close() }()

	l := ledger.NewLedger(fillStore, log, ledger.Config{})
	if err := l.Load(ctx); err != nil {
		return nil, err
	}

	return l.Positions(), nil
}

func positionsAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd, "info")
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	positions, err := loadPositions(ctx, cmd.String("store"), log)
	if err != nil {
		return err
	}

	writer, closeOut, err := newWriter(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = closeOut() }()

	return writer.WritePositions(positions)
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	schemaJSON, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	dir := cmd.String("dir")
	if dir == "" {
		_, err := io.WriteString(cmd.Root().Writer, schemaJSON+"\n")

		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeOutputFailed, err, "failed to create %s", dir)
	}

	schemaName := config.SchemaName + ".json"
	if err := os.WriteFile(filepath.Join(dir, schemaName), []byte(schemaJSON), 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeOutputFailed, err, "failed to write %s", schemaName)
	}

	// an existing sample config is never overwritten
	samplePath := filepath.Join(dir, config.SchemaName+".yaml")
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample, err := cfg.SampleYAML(schemaName)
		if err != nil {
			return err
		}

		if err := os.WriteFile(samplePath, sample, 0644); err != nil {
			return errors.Wrapf(errors.ErrCodeOutputFailed, err, "failed to write %s", samplePath)
		}
	}

	return nil
}
