package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-pnl/internal/feed"
	"github.com/rxtech-lab/argo-pnl/internal/ledger"
	"github.com/rxtech-lab/argo-pnl/internal/logger"
	"github.com/rxtech-lab/argo-pnl/internal/store"
	"github.com/rxtech-lab/argo-pnl/internal/types"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
	"github.com/urfave/cli/v3"
)

// foldCSV folds a CSV export in memory.
func foldCSV(ctx context.Context, path string, account string, log *logger.Logger) ([]types.Position, error) {
	l := ledger.NewLedger(store.NewMemoryStore(), log, ledger.Config{})

	syncReport, err := l.Sync(ctx, feed.NewCSVSource(feed.CSVSourceConfig{Path: path, DefaultAccount: account}, log), nil, nil)
	if err != nil {
		return nil, err
	}

	if err := failedPositions(log, syncReport); err != nil {
		return nil, err
	}

	return l.Positions(), nil
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	storePath := cmd.String("store")

	if (input == "") == (storePath == "") {
		return errors.New(errors.ErrCodeMissingParameter, "exactly one of --input or --store is required")
	}

	// the alt screen owns the terminal, so only errors are logged
	log, err := newLogger(cmd, "error")
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	load := func() ([]types.Position, error) {
		if storePath != "" {
			return loadPositions(ctx, storePath, log)
		}

		return foldCSV(ctx, input, cmd.String("account"), log)
	}

	_, err = tea.NewProgram(NewModel(load), tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	return err
}
