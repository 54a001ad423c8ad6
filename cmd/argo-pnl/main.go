package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/argo-pnl/internal/commission_fee"
	"github.com/rxtech-lab/argo-pnl/internal/report"
	"github.com/rxtech-lab/argo-pnl/internal/version"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Output format (%s, %s or %s)", report.FormatTable, report.FormatCSV, report.FormatJSON),
		Value:   string(report.FormatTable),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the report to this file instead of stdout",
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-pnl",
		Usage:   "Fold trade fills into positions, average prices and realized P&L",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error). Defaults to the config file level, then info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "fold",
				Usage: "Fold the fills of a CSV export and print the per-fill results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "CSV export to fold",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "account",
						Usage: "Account for rows without an account column",
						Value: "default",
					},
					&cli.StringFlag{
						Name:  "broker",
						Usage: fmt.Sprintf("Fee schedule for rows without commission (%s, %s, %s)", commission_fee.BrokerInteractiveBroker, commission_fee.BrokerBinanceSpot, commission_fee.BrokerZero),
					},
					&cli.StringFlag{
						Name:  "store",
						Usage: "DuckDB file to persist the fold into. Empty keeps everything in memory",
					},
					&cli.BoolFlag{
						Name:  "summary",
						Usage: "Print one row per position instead of one row per fill",
					},
					formatFlag(),
					outputFlag(),
				},
				Action: foldAction,
			},
			{
				Name:  "sync",
				Usage: "Fetch fills from the configured feed, fold them into the store and reconcile",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the config file",
						Required: true,
					},
					formatFlag(),
					outputFlag(),
				},
				Action: syncAction,
			},
			{
				Name:  "positions",
				Usage: "Print the positions held in a store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "store",
						Usage:    "DuckDB file to read",
						Required: true,
					},
					formatFlag(),
					outputFlag(),
				},
				Action: positionsAction,
			},
			{
				Name:  "view",
				Usage: "Browse the per-fill results interactively",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "input",
						Usage: "CSV export to fold and browse",
					},
					&cli.StringFlag{
						Name:  "store",
						Usage: "DuckDB file to browse instead of a CSV export",
					},
					&cli.StringFlag{
						Name:  "account",
						Usage: "Account for rows without an account column",
						Value: "default",
					},
				},
				Action: viewAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Write the schema and a sample config into this directory instead of stdout",
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the engine version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

					return err
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
